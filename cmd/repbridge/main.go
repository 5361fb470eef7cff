package main

//go-build: CGO_ENABLED=0

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/bridge"
	"github.com/robotalks/repcode/pkg/env"
	fx "github.com/robotalks/repcode/pkg/framework"
)

func init() {
	env.SetupFlags()
}

type stdinSender struct {
	tx *bridge.Transmitter
}

func (s *stdinSender) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r, err := s.tx.Send(scanner.Bytes())
		if err != nil {
			return err
		}
		if r.Flags.Lossy() {
			glog.Warningf("line sent with loss: %s", r.Flags)
		}
	}
	return scanner.Err()
}

func printMessage(ctx context.Context, msg *bridge.Message) {
	fmt.Fprintf(os.Stdout, "%s\n", msg.Data)
	if msg.Result.CorrectedBits > 0 {
		glog.V(1).Infof("received %d bytes, corrected %d bit(s)", len(msg.Data), msg.Result.CorrectedBits)
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.MustLoad()
	runner := fx.NewRunner().HandleSignals()
	l, err := conf.Dial(runner.Context())
	if err != nil {
		glog.Exitf("dial %q: %v", conf.LinkURL, err)
	}
	defer l.Close()

	enc, err := conf.NewEncoder().Open()
	if err != nil {
		glog.Exitf("open encoder: %v", err)
	}
	defer enc.Close()
	dec, err := conf.NewDecoder().Open()
	if err != nil {
		glog.Exitf("open decoder: %v", err)
	}
	defer dec.Close()

	runner.Go(
		fx.NamedRun("link", l),
		fx.NamedRun("receiver", fx.WithCloser(bridge.NewReceiver(dec, l, bridge.HandleMessageFunc(printMessage)), l)),
		fx.NamedRun("stdin", &stdinSender{tx: bridge.NewTransmitter(enc, l)}),
	)
	if err := runner.Wait(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}
