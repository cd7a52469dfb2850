package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jwttoken "skillchain/internal/auth/jwt"
	"skillchain/internal/metadata"
	"skillchain/internal/platform/config"
	registryhandler "skillchain/internal/registry/handler"
	id "skillchain/pkg/domain"
)

func (a *app) mintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a credential owned by the signing account",
		Long: `Mint a credential. The metadata reference is either given verbatim with --metadata
or derived from a document with --file, which stores the document's CIDv1 (raw, sha2-256).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := a.mintRequest()
			if err != nil {
				return err
			}
			resp, err := a.client().Mint(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	cmd.Flags().String("metadata", "", "metadata reference stored verbatim")
	cmd.Flags().String("file", "", "document whose content address becomes the metadata reference")
	cmd.Flags().Bool("base64", false, "treat --metadata as base64 encoded bytes")
	cmd.Flags().Bool("soulbound", false, "mark the credential soulbound")
	cmd.MarkFlagsMutuallyExclusive("metadata", "file")
	cmd.MarkFlagsOneRequired("metadata", "file")
	return cmd
}

func (a *app) mintRequest() (registryhandler.MintRequest, error) {
	req := registryhandler.MintRequest{Soulbound: a.vp.GetBool("soulbound")}

	if path := a.vp.GetString("file"); path != "" {
		doc, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read metadata document: %w", err)
		}
		ref, err := metadata.RefFor(doc)
		if err != nil {
			return req, fmt.Errorf("derive metadata reference: %w", err)
		}
		req.MetadataRef = string(ref)
		return req, nil
	}

	req.MetadataRef = a.vp.GetString("metadata")
	if a.vp.GetBool("base64") {
		if _, err := base64.StdEncoding.DecodeString(req.MetadataRef); err != nil {
			return req, errors.New("--metadata is not valid base64")
		}
		req.Encoding = registryhandler.EncodingBase64
	}
	return req, nil
}

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify ID",
		Short: "Mark a credential verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credentialID, err := id.ParseCredentialID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.client().Verify(cmd.Context(), credentialID)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func (a *app) endorseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endorse ID",
		Short: "Stake funds behind a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credentialID, err := id.ParseCredentialID(args[0])
			if err != nil {
				return err
			}
			stake, err := id.ParseBalance(a.vp.GetString("stake"))
			if err != nil {
				return fmt.Errorf("--stake: %w", err)
			}
			resp, err := a.client().Endorse(cmd.Context(), credentialID, stake)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	cmd.Flags().String("stake", "", "amount to reserve from the signing account")
	_ = cmd.MarkFlagRequired("stake")
	return cmd
}

// credentialSummary joins the registry record with its endorsement ledger entry.
type credentialSummary struct {
	*registryhandler.CredentialResponse
	Score        id.Balance `json:"score"`
	Endorsements int        `json:"endorsements"`
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a credential with its score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credentialID, err := id.ParseCredentialID(args[0])
			if err != nil {
				return err
			}
			c := a.client()
			credential, err := c.Credential(cmd.Context(), credentialID)
			if err != nil {
				return err
			}
			endorsements, err := c.Endorsements(cmd.Context(), credentialID)
			if err != nil {
				return err
			}
			score, err := c.Score(cmd.Context(), credentialID)
			if err != nil {
				return err
			}
			return a.print(credentialSummary{
				CredentialResponse: credential,
				Score:              score,
				Endorsements:       len(endorsements.Endorsements),
			})
		},
	}
}

func (a *app) accountCredentialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "credentials ACCOUNT",
		Short: "List credential ids owned by an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			ids, err := a.client().AccountCredentials(cmd.Context(), account)
			if err != nil {
				return err
			}
			return a.print(ids)
		},
	}
}

func (a *app) profileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile ACCOUNT",
		Short: "Show an account's credentials with verification and endorsement totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			p, err := a.client().Profile(cmd.Context(), account)
			if err != nil {
				return err
			}
			return a.print(p)
		},
	}
}

func (a *app) balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance ACCOUNT",
		Short: "Show free and reserved funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := id.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			b, err := a.client().Balance(cmd.Context(), account)
			if err != nil {
				return err
			}
			return a.print(b)
		},
	}
}

func (a *app) nextIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Print the id the next mint will receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			next, err := a.client().NextCredentialID(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(registryhandler.NextIDResponse{NextCredentialID: next})
		},
	}
}

func (a *app) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development bearer token for an account",
		Long: `Sign a bearer token with the server's shared signing key. The key, issuer and
audience must match the server's JWT_SIGNING_KEY, TOKEN_ISSUER and TOKEN_AUDIENCE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := id.ParseAccountID(a.vp.GetString("account"))
			if err != nil {
				return err
			}
			key := a.vp.GetString("signing-key")
			if key == "" {
				return errors.New("--signing-key or SKILLCTL_SIGNING_KEY is required")
			}
			tokens := jwttoken.NewJWTService(key,
				a.vp.GetString("issuer"),
				a.vp.GetString("audience"),
				a.vp.GetDuration("ttl"),
			)
			token, err := tokens.GenerateSignerToken(cmd.Context(), account)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, token)
			return err
		},
	}
	cmd.Flags().String("account", "", "account the token signs for")
	cmd.Flags().String("signing-key", "", "HS256 signing key shared with the server")
	cmd.Flags().String("issuer", config.DefaultTokenIssuer, "token issuer")
	cmd.Flags().String("audience", config.DefaultTokenAudience, "token audience")
	cmd.Flags().Duration("ttl", config.DefaultTokenTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
