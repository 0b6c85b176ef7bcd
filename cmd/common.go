package cmd

import (
	"fmt"

	"github.com/opencard/pkcs15mw/output"
	"github.com/opencard/pkcs15mw/reader"
)

// listReaders prints the list of available PC/SC readers.
func listReaders() error {
	readers, err := reader.ListReaders()
	if err != nil {
		return fmt.Errorf("list readers: %w", err)
	}
	output.PrintReaderList(readers)
	return nil
}
