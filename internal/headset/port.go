package headset

import (
	"io"

	"go.bug.st/serial"
)

// Porter is the minimal interface the stream needs from a sample transport.
// The abstraction enables unit testing without amplifier hardware.
type Porter interface {
	io.Reader
	io.Closer
}

// OpenSerial opens the amplifier's serial port. EEG amplifiers with an
// FTDI-style bridge stream at 8N1; only the baud rate varies by vendor.
func OpenSerial(path string, baudRate int) (Porter, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(path, mode)
}
