package env

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/repcode/pkg/codec"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "repcode.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBindFlags(t *testing.T) {
	conf := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-framing", "length", "-link", "tcp://peer:7000", "-noise", "0.01", "-framed"}))
	require.Equal(t, codec.FramingLength, conf.Framing)
	require.Equal(t, "tcp://peer:7000", conf.LinkURL)
	require.Equal(t, 0.01, conf.Noise)
	require.True(t, conf.Framed)
	require.Error(t, fs.Parse([]string{"-framing", "hamming"}))
}

func TestApplyEnv(t *testing.T) {
	vars := map[string]string{
		"REPCODE_FRAMING":  "length",
		"REPCODE_LINK_URL": "tcp://peer:7000",
		"REPCODE_NOISE":    "0.1",
		"REPCODE_CONFIG":   "/etc/repcode.toml",
	}
	conf := NewConfig()
	path := applyEnv(conf, func(name string) string { return vars[name] })
	require.Equal(t, "/etc/repcode.toml", path)
	require.Equal(t, codec.FramingLength, conf.Framing)
	require.Equal(t, "tcp://peer:7000", conf.LinkURL)
	require.Equal(t, 0.1, conf.Noise)

	for _, tc := range []map[string]string{
		{"REPCODE_FRAMING": "hamming", "REPCODE_NOISE": "lots"},
		{"REPCODE_NOISE": "1.5"},
		{"REPCODE_NOISE": "-0.1"},
	} {
		vars := tc
		conf := NewConfig()
		conf.Noise = 0.02
		require.Empty(t, applyEnv(conf, func(name string) string { return vars[name] }))
		require.Equal(t, codec.FramingSentinel, conf.Framing)
		require.Equal(t, 0.02, conf.Noise)
	}
}

func TestParseNoise(t *testing.T) {
	rate, err := parseNoise("0.25")
	require.NoError(t, err)
	require.Equal(t, 0.25, rate)
	for _, val := range []string{"x", "-1", "2"} {
		_, err = parseNoise(val)
		require.Error(t, err)
	}
}

func TestMerge(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		`framing = "length"`,
		`link = "mqtt://broker:1883/repcode/"`,
		`name = "beaglebone"`,
		`peer = "desktop"`,
		`noise = 0.05`,
	}, "\n"))

	conf := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-name", "bench"}))
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	require.NoError(t, conf.Merge(path, explicit))
	require.Equal(t, codec.FramingLength, conf.Framing)
	require.Equal(t, "mqtt://broker:1883/repcode/", conf.LinkURL)
	require.Equal(t, "bench", conf.Name)
	require.Equal(t, "desktop", conf.Peer)
	require.Equal(t, 0.05, conf.Noise)
	// absent from file, keeps defaults.
	require.Equal(t, Default().Origin, conf.Origin)
}

func TestMergeErrors(t *testing.T) {
	conf := NewConfig()
	require.Error(t, conf.Merge(filepath.Join(t.TempDir(), "missing.toml"), nil))
	require.Error(t, conf.Merge(writeConfig(t, `framing = "crc"`), nil))
}

func TestClientID(t *testing.T) {
	conf := NewConfig()
	conf.ClientID = "fixed"
	require.Equal(t, "fixed", conf.ClientIDOrDefault())
	conf.ClientID = ""
	require.True(t, strings.HasPrefix(conf.ClientIDOrDefault(), "repcode-"+conf.Name+"-"))
	require.NotEmpty(t, MachineID())
}

func TestDialLoop(t *testing.T) {
	conf := NewConfig()
	conf.LinkURL = "loop://"
	l, err := conf.Dial(context.Background())
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.WritePacket([]byte("AAA\x00")))
	pkt, err := l.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("AAA\x00"), pkt)
}

func TestDialNoisy(t *testing.T) {
	conf := NewConfig()
	conf.LinkURL = "loop://"
	conf.Noise = 1
	l, err := conf.Dial(context.Background())
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.WritePacket([]byte{0x0f}))
	pkt, err := l.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{0xf0}, pkt)
}

func TestDialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tty")
	require.NoError(t, os.WriteFile(path, []byte("HHHIII\x00"), 0644))
	conf := NewConfig()
	conf.LinkURL = "file://" + path
	l, err := conf.Dial(context.Background())
	require.NoError(t, err)
	defer l.Close()
	pkt, err := l.ReadPacket()
	require.NoError(t, err)
	decoded, _ := codec.DecodeBytes(pkt, conf.Framing)
	require.Equal(t, []byte("HI"), decoded)

	conf.Framed = true
	_, err = conf.Dial(context.Background())
	require.Error(t, err)
	conf.Framed, conf.Framing = false, codec.FramingLength
	_, err = conf.Dial(context.Background())
	require.Error(t, err)
}

func TestDialUnknown(t *testing.T) {
	conf := NewConfig()
	conf.LinkURL = "serial://ttyS0"
	_, err := conf.Dial(context.Background())
	require.Error(t, err)
}
