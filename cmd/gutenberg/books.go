package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Inspect and manage stored books",
	}
	cmd.AddCommand(newBooksFetchCmd(), newBooksListCmd(), newBooksEvictCmd())
	return cmd
}

func newBooksFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <book_id>",
		Short: "Store a book, scraping it from Project Gutenberg if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), a, false)
			if err != nil {
				return err
			}
			defer store.Close()
			svc, err := newLibrary(a, store, nil)
			if err != nil {
				return err
			}
			book, err := svc.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d characters\n",
				book.CatalogID, book.Title, book.Author, book.Language, len([]rune(book.Content)))
			return nil
		},
	}
}

func newBooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored books, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), a, false)
			if err != nil {
				return err
			}
			defer store.Close()
			svc, err := newLibrary(a, store, nil)
			if err != nil {
				return err
			}
			books, err := svc.ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintln(out, "no books stored")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BOOK_ID\tTITLE\tAUTHOR\tLANGUAGE\tDOWNLOADS\tSTORED")
			for _, b := range books {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					b.CatalogID, b.Title, b.Author, b.Language, b.DownloadCount, b.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newBooksEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict <book_id>",
		Short: "Delete a stored book and its cached analyses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), a, false)
			if err != nil {
				return err
			}
			defer store.Close()
			svc, err := newLibrary(a, store, nil)
			if err != nil {
				return err
			}
			if err := svc.EvictBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evicted book %s\n", args[0])
			return nil
		},
	}
}
