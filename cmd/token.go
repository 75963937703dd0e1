package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/emsctl/sunpura/pkg/hasher"
)

const tokenByteLength = 32

// GenerateTokenCommand prints a random API token together with the bcrypt
// hash the server expects in api-token-hash. The token itself is shown once
// and never stored.
func GenerateTokenCommand(ctx *cli.Context) error {
	token, err := hasher.GenerateToken(tokenByteLength)
	if err != nil {
		return err
	}
	hash, err := hasher.HashToken([]byte(token))
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "token: %s\nhash:  %s\n", token, hash)
	return nil
}
