// internal/protocol/framer.go
package protocol

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"psu-service/pkg/driver"
)

// Wire framing constants
const (
	MnemonicLength = 4
	Terminator     = '\r'
	AckMarker      = "OK"
	// ResponseOverhead is the ack marker plus the trailing terminator
	ResponseOverhead = len(AckMarker) + 1
)

// Command is a mnemonic followed by fixed-width fields
type Command struct {
	mnemonic string
	fields   []string
}

// NewCommand creates a command. The mnemonic must be 4 characters.
func NewCommand(mnemonic string, fields ...string) (Command, error) {
	if len(mnemonic) != MnemonicLength {
		return Command{}, driver.NewError("build command", driver.ErrInvalidArgument,
			fmt.Sprintf("mnemonic %q must be %d characters", mnemonic, MnemonicLength))
	}
	return Command{
		mnemonic: mnemonic,
		fields:   append([]string(nil), fields...),
	}, nil
}

// Mnemonic returns the command name
func (c Command) Mnemonic() string {
	return c.mnemonic
}

// String returns the command text without the terminator
func (c Command) String() string {
	return c.mnemonic + strings.Join(c.fields, "")
}

// Bytes returns the command as sent on the wire
func (c Command) Bytes() []byte {
	return append([]byte(c.String()), Terminator)
}

// Framer runs one request/response exchange per call
type Framer struct {
	transport Transport
	poller    Poller
}

// NewFramer creates a framer over a transport and poller
func NewFramer(transport Transport, poller Poller) *Framer {
	return &Framer{
		transport: transport,
		poller:    poller,
	}
}

// Execute writes cmd and returns the first responseLength bytes of the
// acknowledged reply. The context is only consulted before transmission.
func (f *Framer) Execute(ctx context.Context, cmd Command, responseLength int) ([]byte, error) {
	if responseLength < 0 {
		return nil, driver.NewError(cmd.Mnemonic(), driver.ErrInvalidArgument,
			fmt.Sprintf("negative response length %d", responseLength))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := f.transport.Write(ctx, cmd.Bytes()); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Mnemonic(), err)
	}

	reply, err := f.poller.AwaitExact(responseLength + ResponseOverhead)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Mnemonic(), err)
	}

	if len(reply) < responseLength+len(AckMarker) {
		return nil, driver.NewError(cmd.Mnemonic(), driver.ErrNoAck,
			fmt.Sprintf("reply of %d bytes is too short", len(reply)))
	}

	ack := reply[responseLength : responseLength+len(AckMarker)]
	if !bytes.Equal(ack, []byte(AckMarker)) {
		return nil, driver.NewError(cmd.Mnemonic(), driver.ErrNoAck,
			fmt.Sprintf("got %q instead of %q", ack, AckMarker))
	}

	return reply[:responseLength], nil
}
