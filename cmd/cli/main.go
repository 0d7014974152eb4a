// Package main implements the docvault CLI for driving the document store from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dsjohal14/docvault/internal/libs/config"
	"github.com/dsjohal14/docvault/internal/libs/obs"
	"github.com/dsjohal14/docvault/internal/scope/store"
	"github.com/spf13/cobra"
)

var (
	dataJSON  string
	queryJSON string
	sortSpec  string
	limit     int
	skip      int
)

var rootCmd = &cobra.Command{
	Use:   "docvault",
	Short: "CLI for the docvault document store",
	Long:  `Create, inspect and query documents against whichever storage engine is available.`,
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List all collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			names, err := st.Collections(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create <collection>",
	Short: "Create a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fields store.Fields
		if err := json.Unmarshal([]byte(dataJSON), &fields); err != nil {
			return fmt.Errorf("invalid --data JSON: %w", err)
		}
		return withStore(func(ctx context.Context, st *store.Store) error {
			id, err := st.Create(ctx, args[0], fields)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <collection> <id>",
	Short: "Fetch a document by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			doc, err := st.Get(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(doc)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <collection> <id>",
	Short: "Merge fields into an existing document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fields store.Fields
		if err := json.Unmarshal([]byte(dataJSON), &fields); err != nil {
			return fmt.Errorf("invalid --data JSON: %w", err)
		}
		return withStore(func(ctx context.Context, st *store.Store) error {
			count, err := st.Update(ctx, args[0], args[1], fields)
			if err != nil {
				return err
			}
			fmt.Printf("modified %d\n", count)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Delete a document by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, st *store.Store) error {
			count, err := st.Delete(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d\n", count)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List documents in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.ListOptions{Limit: limit, Skip: skip}
		if queryJSON != "" {
			if err := json.Unmarshal([]byte(queryJSON), &opts.Query); err != nil {
				return fmt.Errorf("invalid --query JSON: %w", err)
			}
		}
		var err error
		if opts.Sort, err = parseSortSpec(sortSpec); err != nil {
			return err
		}
		return withStore(func(ctx context.Context, st *store.Store) error {
			docs, err := st.List(ctx, args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(docs)
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count <collection>",
	Short: "Count documents in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var query store.Query
		if queryJSON != "" {
			if err := json.Unmarshal([]byte(queryJSON), &query); err != nil {
				return fmt.Errorf("invalid --query JSON: %w", err)
			}
		}
		return withStore(func(ctx context.Context, st *store.Store) error {
			n, err := st.Count(ctx, args[0], query)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		})
	},
}

// withStore wires config and logging, binds an engine, runs fn and tears
// the engine down again.
func withStore(fn func(context.Context, *store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	obs.InitLogger(cfg.LogLevel)

	st := store.New(store.Config{
		DatabaseURL:    cfg.DatabaseURL,
		DatabaseDriver: cfg.DatabaseDriver,
		MongoURI:       cfg.MongoURI,
		MongoDB:        cfg.MongoDBName,
	}, obs.Logger("store"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer func() { _ = st.Close(context.Background()) }()

	return fn(ctx, st)
}

// parseSortSpec parses "field,-other" into sort keys; a leading '-'
// means descending.
func parseSortSpec(spec string) (store.Sort, error) {
	if spec == "" {
		return nil, nil
	}
	var sort store.Sort
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			return nil, fmt.Errorf("invalid sort spec %q", spec)
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		sort = append(sort, store.SortField{Field: part, Direction: dir})
	}
	return sort, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	createCmd.Flags().StringVar(&dataJSON, "data", "{}", "document fields as JSON")
	updateCmd.Flags().StringVar(&dataJSON, "data", "{}", "fields to merge as JSON")
	for _, cmd := range []*cobra.Command{listCmd, countCmd} {
		cmd.Flags().StringVar(&queryJSON, "query", "", "equality filter as JSON")
	}
	listCmd.Flags().StringVar(&sortSpec, "sort", "", "sort keys, e.g. name,-age")
	listCmd.Flags().IntVar(&limit, "limit", 0, "max documents to return (default 100)")
	listCmd.Flags().IntVar(&skip, "skip", 0, "documents to skip")

	rootCmd.AddCommand(collectionsCmd, createCmd, getCmd, updateCmd, deleteCmd, listCmd, countCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
