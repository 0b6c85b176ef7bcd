package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opencard/pkcs15mw/pin"
	"github.com/opencard/pkcs15mw/pkcs15"
)

var pinReference int

var verifyPINCmd = &cobra.Command{
	Use:   "verify-pin",
	Short: "Verify a PIN against the token",
	Run:   runVerifyPIN,
}

var changePINCmd = &cobra.Command{
	Use:   "change-pin",
	Short: "Change a PIN",
	Run:   runChangePIN,
}

var unblockPINCmd = &cobra.Command{
	Use:   "unblock-pin",
	Short: "Unblock a PIN using its PUK",
	Run:   runUnblockPIN,
}

func init() {
	for _, c := range []*cobra.Command{verifyPINCmd, changePINCmd, unblockPINCmd} {
		c.Flags().IntVar(&pinReference, "ref", 1, "PIN reference (key reference byte)")
		rootCmd.AddCommand(c)
	}
}

// findAuthInfo loads the AODF and looks up the AuthInfo for ref.
func findAuthInfo(card *pkcs15.Card, ref int) (*pkcs15.AuthInfo, error) {
	if err := card.Load(pkcs15.TypeAuthPIN); err != nil {
		return nil, fmt.Errorf("load AODF: %w", err)
	}
	var info *pkcs15.AuthInfo
	card.Objects.Walk(func(_ int, obj *pkcs15.Object) bool {
		ai, ok := obj.Payload.(*pkcs15.AuthInfo)
		if ok && ai.Reference == ref {
			info = ai
			return false
		}
		return true
	})
	if info == nil {
		return nil, fmt.Errorf("no authentication object with reference %d", ref)
	}
	return info, nil
}

func promptSecret(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return string(data), nil
}

func runVerifyPIN(cmd *cobra.Command, args []string) {
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
	info, err := findAuthInfo(card, pinReference)
	if err != nil {
		printError(err.Error())
		return
	}

	plaintext, err := promptSecret("PIN")
	if err != nil {
		printError(err.Error())
		return
	}

	err = pin.VerifyPIN(s.Card, info, plaintext, s.Reader.IsPINPad(), s.Cache)
	if errors.Is(err, pin.ErrUsePINPad) {
		printSuccess("enter the PIN on the reader's keypad")
		err = pin.VerifyPIN(s.Card, info, "", s.Reader.IsPINPad(), s.Cache)
	}
	if err != nil {
		printError(fmt.Sprintf("verify PIN: %v", err))
		return
	}
	printSuccess("PIN verified")
}

func runChangePIN(cmd *cobra.Command, args []string) {
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
	info, err := findAuthInfo(card, pinReference)
	if err != nil {
		printError(err.Error())
		return
	}

	oldPIN, err := promptSecret("current PIN")
	if err != nil {
		printError(err.Error())
		return
	}
	newPIN, err := promptSecret("new PIN")
	if err != nil {
		printError(err.Error())
		return
	}

	if err := pin.ChangePIN(s.Card, info, oldPIN, newPIN, s.Reader.IsPINPad(), s.Cache); err != nil {
		printError(fmt.Sprintf("change PIN: %v", err))
		return
	}
	printSuccess("PIN changed")
}

func runUnblockPIN(cmd *cobra.Command, args []string) {
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
	info, err := findAuthInfo(card, pinReference)
	if err != nil {
		printError(err.Error())
		return
	}

	puk, err := promptSecret("PUK")
	if err != nil {
		printError(err.Error())
		return
	}
	newPIN, err := promptSecret("new PIN")
	if err != nil {
		printError(err.Error())
		return
	}

	if err := pin.UnblockPIN(s.Card, card.Objects, info, puk, newPIN, s.Reader.IsPINPad(), s.Cache); err != nil {
		printError(fmt.Sprintf("unblock PIN: %v", err))
		return
	}
	printSuccess("PIN unblocked")
}
