package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencard/pkcs15mw/output"
	"github.com/opencard/pkcs15mw/pkcs15"
)

var listCmd = &cobra.Command{
	Use:   "list [pins|keys|pubkeys|certs|data]",
	Short: "List the token's PKCS#15 objects",
	Long: `List lists objects from the bound PKCS#15 card.

Examples:
  pkcs15mw list pins
  pkcs15mw list keys
  pkcs15mw list certs`,
	Args: cobra.MaximumNArgs(1),
	Run:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	kind := "pins"
	if len(args) == 1 {
		kind = args[0]
	}

	objType, ok := kindToType(kind)
	if !ok {
		printError(fmt.Sprintf("unknown object kind %q (want pins, keys, pubkeys, certs, or data)", kind))
		return
	}

	s, err := connect()
	if err != nil {
		printError(err.Error())
		return
	}
	defer s.Close()

	card, err := s.bindCard(defaultAppDF(), defaultODF())
	if err != nil {
		printError(fmt.Sprintf("bind PKCS#15 card: %v", err))
		return
	}

	if err := card.Load(objType); err != nil {
		printError(fmt.Sprintf("load directory: %v", err))
		return
	}

	var objs []*pkcs15.Object
	card.Objects.Walk(func(idx int, obj *pkcs15.Object) bool {
		if obj.Type == objType {
			objs = append(objs, obj)
		}
		return true
	})

	if objType == pkcs15.TypeAuthPIN {
		output.PrintPINs(objs)
		return
	}
	output.PrintObjects(listTitle(kind), objs)
}

func kindToType(kind string) (pkcs15.ObjectType, bool) {
	switch kind {
	case "pins":
		return pkcs15.TypeAuthPIN, true
	case "keys":
		return pkcs15.TypePrivateKey, true
	case "pubkeys":
		return pkcs15.TypePublicKey, true
	case "certs":
		return pkcs15.TypeCertificate, true
	case "data":
		return pkcs15.TypeDataObject, true
	default:
		return 0, false
	}
}

func listTitle(kind string) string {
	switch kind {
	case "keys":
		return "PRIVATE KEYS"
	case "pubkeys":
		return "PUBLIC KEYS"
	case "certs":
		return "CERTIFICATES"
	case "data":
		return "DATA OBJECTS"
	default:
		return "OBJECTS"
	}
}
