package apdu

import "github.com/opencard/pkcs15mw/ckerr"

// Transmitter is the reader capability apdu needs: push raw bytes,
// get raw bytes back. Implemented by the reader package's backends.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

const getResponseIns = 0xC0

// Transmit sends cmd, then resolves 0x61xx ("more data, issue GET
// RESPONSE") and 0x6Cxx ("wrong Le, retry with SW2") automatically,
// per spec.md §4.E, returning the final data-bearing Response.
func Transmit(t Transmitter, cmd Command) (Response, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return Response{}, err
	}
	resp, err := transmitRaw(t, raw)
	if err != nil {
		return Response{}, err
	}

	if resp.NeedsLeRetry() {
		cmd.Le = int(resp.SW2)
		cmd.HasLe = true
		raw, err = cmd.Bytes()
		if err != nil {
			return Response{}, err
		}
		resp, err = transmitRaw(t, raw)
		if err != nil {
			return Response{}, err
		}
	}

	combined := resp.Data
	for resp.HasMoreData() {
		grCmd := Command{CLA: cmd.CLA & 0xFC, INS: getResponseIns, Le: int(resp.SW2), HasLe: true}
		grRaw, err := grCmd.Bytes()
		if err != nil {
			return Response{}, err
		}
		resp, err = transmitRaw(t, grRaw)
		if err != nil {
			return Response{}, err
		}
		combined = append(combined, resp.Data...)
	}
	resp.Data = combined

	return resp, nil
}

func transmitRaw(t Transmitter, raw []byte) (Response, error) {
	out, err := t.Transmit(raw)
	if err != nil {
		return Response{}, ckerr.Wrap(ckerr.TransmitFailed, err, "transmit failed")
	}
	return ParseResponse(out)
}
