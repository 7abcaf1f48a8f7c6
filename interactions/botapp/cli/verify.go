package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattermost/mattermost-interactions/interactions"
	"github.com/mattermost/mattermost-interactions/utils"
)

func verifyCmd() *cobra.Command {
	var publicKey, signature, timestamp string
	cmd := &cobra.Command{
		Use:   "verify <body-file>",
		Short: "Check the signature of a request body.",
		Long:  "Check a request body (read from a file, or stdin if the file is -) against its signature headers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if publicKey == "" {
				publicKey = os.Getenv("DISCORD_PUBLIC_KEY")
			}
			if publicKey == "" || signature == "" || timestamp == "" {
				return utils.NewInvalidError("--public-key (or DISCORD_PUBLIC_KEY), --signature, and --timestamp are required")
			}

			body, err := readBody(cmd, args[0])
			if err != nil {
				return err
			}

			if !interactions.VerifyEd25519(body, signature, timestamp, publicKey) {
				return utils.NewUnauthorizedError("invalid signature")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature is valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&publicKey, "public-key", "", "hex-encoded public key of the application")
	cmd.Flags().StringVar(&signature, "signature", "", "value of the "+interactions.SignatureHeader+" header")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "value of the "+interactions.TimestampHeader+" header")
	return cmd
}
