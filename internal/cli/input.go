package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/ipchunk/internal/common"
	"github.com/dmitrijs2005/ipchunk/internal/cryptox"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type keyOptions struct {
	keyFile          string
	passphrasePrompt bool
}

func (o *keyOptions) bind(cmd *cobra.Command, prefix, what string) {
	cmd.Flags().StringVar(&o.keyFile, prefix+"key-file", "", what+" key file (32 raw bytes or 64 hex characters)")
	cmd.Flags().BoolVar(&o.passphrasePrompt, prefix+"passphrase-prompt", false, "derive the "+what+" key from a passphrase read from the terminal")
	cmd.MarkFlagsMutuallyExclusive(prefix+"key-file", prefix+"passphrase-prompt")
}

var errNoKey = errors.New("a key is required: use --key-file or --passphrase-prompt")

// GetPassword prints a prompt to w and reads a passphrase from the terminal
// without echo. The caller should wipe the result.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// resolveKey loads or derives the key selected by o.
func (a *App) resolveKey(o *keyOptions, what string) ([]byte, error) {
	switch {
	case o.keyFile != "":
		raw, err := os.ReadFile(o.keyFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s key: %w", what, err)
		}
		defer common.WipeByteArray(raw)
		return cryptox.ParseKey(raw)

	case o.passphrasePrompt:
		pw, err := GetPassword(a.errOut, "Enter "+what+" passphrase: ")
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		defer common.WipeByteArray(pw)
		if len(pw) == 0 {
			return nil, errors.New("empty passphrase")
		}
		return cryptox.DeriveKey(pw, []byte(a.config.KDFSalt)), nil

	default:
		return nil, errNoKey
	}
}
