package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/services"
)

func renderCmd() *cobra.Command {
	var (
		cert models.Certificate
		date string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a certificate PDF to a file without checking payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				issued, err := time.Parse("2006-01-02", date)
				if err != nil {
					return errors.Wrap(err, "parse --date")
				}
				cert.IssueDate = issued
			}
			pdf, err := services.NewPDFRenderer().Render(cert)
			if err != nil {
				return err
			}
			if out == "" {
				out = services.CertificateFilename(cert.TransactionID)
			}
			if err := os.WriteFile(out, pdf, 0o644); err != nil {
				return errors.Wrap(err, "write certificate")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(pdf))
			return nil
		},
	}

	cmd.Flags().StringVar(&cert.TransactionID, "tran-id", "", "transaction id printed as the certificate id")
	cmd.Flags().StringVar(&cert.Name, "name", "", "candidate name")
	cmd.Flags().StringVar(&cert.Score, "score", "", "overall band score")
	cmd.Flags().StringVar(&date, "date", "", "issue date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.MarkFlagRequired("tran-id")
	return cmd
}
