package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ed25519"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
	"github.com/mattermost/mattermost-interactions/utils/httputils"
)

func readBody(cmd *cobra.Command, name string) ([]byte, error) {
	var in io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open the body")
		}
		defer f.Close()
		in = f
	}
	body, err := httputils.LimitReadAll(in, httputils.InLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the body")
	}
	return body, nil
}

func signCmd() *cobra.Command {
	var seed, timestamp string
	cmd := &cobra.Command{
		Use:   "sign <body-file>",
		Short: "Sign a request body with a test key.",
		Long: "Sign a request body (read from a file, or stdin if the file is -) with the key derived from a hex-encoded seed, " +
			"and print the headers to send it with, and the public key to configure the app with.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(seed)
			if err != nil || len(raw) != ed25519.SeedSize {
				return utils.NewInvalidError("--seed must be a hex-encoded %d byte seed", ed25519.SeedSize)
			}
			if timestamp == "" {
				timestamp = strconv.FormatInt(time.Now().Unix(), 10)
			}
			body, err := readBody(cmd, args[0])
			if err != nil {
				return err
			}

			key := ed25519.NewKeyFromSeed(raw)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", interactions.SignatureHeader, interactions.SignEd25519(key, body, timestamp))
			fmt.Fprintf(out, "%s: %s\n", interactions.TimestampHeader, timestamp)
			fmt.Fprintf(out, "Public key: %s\n", hex.EncodeToString(key.Public().(ed25519.PublicKey)))
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "hex-encoded 32 byte private key seed")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "timestamp to sign with, the current time by default")
	return cmd
}
