package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencard/pkcs15mw/output"
	"github.com/opencard/pkcs15mw/path"
)

var readBinaryCmd = &cobra.Command{
	Use:   "read-binary <path>",
	Short: "SELECT a transparent EF by path and dump its contents",
	Long: `read-binary selects the given file path (hex-encoded, e.g.
3F005015) and reads its entire transparent body.`,
	Args: cobra.ExactArgs(1),
	Run:  runReadBinary,
}

func init() {
	rootCmd.AddCommand(readBinaryCmd)
}

func runReadBinary(cmd *cobra.Command, args []string) {
	p, err := path.Parse(args[0])
	if err != nil {
		printError(fmt.Sprintf("parse path: %v", err))
		return
	}

	s, err := connect()
	if err != nil {
		printError(err.Error())
		return
	}
	defer s.Close()

	f, data, err := s.Card.SelectAndReadBinary(p)
	if err != nil {
		printError(fmt.Sprintf("read %s: %v", args[0], err))
		return
	}

	output.PrintFileInfo(f)
	output.PrintRawData(map[string][]byte{args[0]: data})
}
