// Package codec provides the (3,1) repetition code used over the serial link.
package codec

// Every data byte is transmitted three times in a row. The receiver recovers
// the byte by a bitwise majority vote across the three copies, which corrects
// any bit flipped in a single copy. Two copies disagreeing with the original
// at the same bit position can't be corrected and yield the wrong bit.
//
// There's no checksum or CRC. Errors beyond one copy per bit are silently
// decoded to wrong data; Result.CorrectedBits only reports disagreement.
//
// Producer: Encoder (application data -> line)
// Consumer: Decoder (line -> application data)
