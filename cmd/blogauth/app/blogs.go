package app

import (
	"fmt"
	"io"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-blogauth/blogs"
	"github.com/goliatone/go-blogauth/database"
)

func newBlogsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogs",
		Short: "Inspect stored blogs",
	}
	cmd.AddCommand(newBlogsListCmd(opts))
	return cmd
}

func newBlogsListCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every blog with its like count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, zl, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			db, err := database.Open(cmd.Context(), cfg.Database.DSN, database.WithDebug(cfg.Database.Debug))
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := blogs.NewRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(records))
				return nil
			}
			printBlogs(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the blogs as JSON")
	return cmd
}

func printBlogs(w io.Writer, records []*blogs.Blog) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No blogs found.")
		return
	}
	for _, b := range records {
		author := "Unknown Author"
		if b.Author != nil && *b.Author != "" {
			author = *b.Author
		}
		fmt.Fprintf(w, "%s: '%s', %d likes\n", author, b.Title, b.Likes)
	}
}
