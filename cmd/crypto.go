package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cryptoKeyRef int
	cryptoAlgRef int
	cryptoDigest string
	cryptoCipher string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a pre-hashed digest with a card-resident private key",
	Run:   runSign,
}

var decipherCmd = &cobra.Command{
	Use:   "decipher",
	Short: "Decrypt ciphertext with a card-resident private key",
	Run:   runDecipher,
}

func init() {
	signCmd.Flags().IntVar(&cryptoKeyRef, "key-ref", 0, "private key reference byte")
	signCmd.Flags().IntVar(&cryptoAlgRef, "alg-ref", 0, "algorithm reference byte (card-specific, 0 to omit)")
	signCmd.Flags().StringVar(&cryptoDigest, "digest", "", "hex-encoded pre-hashed digest to sign")

	decipherCmd.Flags().IntVar(&cryptoKeyRef, "key-ref", 0, "private key reference byte")
	decipherCmd.Flags().IntVar(&cryptoAlgRef, "alg-ref", 0, "algorithm reference byte (card-specific, 0 to omit)")
	decipherCmd.Flags().StringVar(&cryptoCipher, "ciphertext", "", "hex-encoded ciphertext to decrypt")

	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(decipherCmd)
}

func runSign(cmd *cobra.Command, args []string) {
	digest, err := hex.DecodeString(cryptoDigest)
	if err != nil || cryptoDigest == "" {
		printError("--digest must be a non-empty hex string")
		return
	}

	s, err := connect()
	if err != nil {
		printError(err.Error())
		return
	}
	defer s.Close()

	if err := s.Card.ManageSecurityEnvironment(true, -1, byte(cryptoAlgRef), nil, byte(cryptoKeyRef), true); err != nil {
		printError(fmt.Sprintf("set security environment: %v", err))
		return
	}
	sig, err := s.Card.PSOSign(digest, 0)
	if err != nil {
		printError(fmt.Sprintf("sign: %v", err))
		return
	}
	fmt.Println(hex.EncodeToString(sig))
}

func runDecipher(cmd *cobra.Command, args []string) {
	ciphertext, err := hex.DecodeString(cryptoCipher)
	if err != nil || cryptoCipher == "" {
		printError("--ciphertext must be a non-empty hex string")
		return
	}

	s, err := connect()
	if err != nil {
		printError(err.Error())
		return
	}
	defer s.Close()

	if err := s.Card.ManageSecurityEnvironment(false, -1, byte(cryptoAlgRef), nil, byte(cryptoKeyRef), true); err != nil {
		printError(fmt.Sprintf("set security environment: %v", err))
		return
	}
	plaintext, err := s.Card.PSODecipher(ciphertext)
	if err != nil {
		printError(fmt.Sprintf("decipher: %v", err))
		return
	}
	fmt.Println(hex.EncodeToString(plaintext))
}
