// Package lx16a provides LX-16A serial bus servo protocol support.
package lx16a

// The LX-16A protocol is half-duplex over a single serial line. Each frame
// starts with two 0x55 sync bytes:
//
//   0x55 0x55 <id> <length> <command> <params...> <checksum>
//
// length counts the bytes from length itself through the checksum, so the
// number of parameters is length-3. The checksum is the inverted low byte of
// id+length+command+sum(params).
//
// Producer: host controller
// Consumer: servo (emulator)
