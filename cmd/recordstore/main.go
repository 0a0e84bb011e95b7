// Command recordstore is a manual test harness over the store package, in
// the spirit of DaemonDB's cmd/seed, cmd/dump_sample and cmd/inspect_idx
// tools: small cobra subcommands wired straight to the library, no SQL
// layer in between.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"recordstore/store"
)

var (
	pagesPath  string
	btreePath  string
	pageSize   int
	recordSize int
	keySize    int
	poolCap    int
	allowDup   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recordstore",
		Short: "Inspect and drive an embedded paged record store",
	}

	root.PersistentFlags().StringVar(&pagesPath, "pages", "pages.bin", "path to the pages file")
	root.PersistentFlags().StringVar(&btreePath, "btree", "btree.bin", "path to the branch index file")
	root.PersistentFlags().IntVar(&pageSize, "page-size", 4096, "page size in bytes (P)")
	root.PersistentFlags().IntVar(&recordSize, "record-size", 200, "record size in bytes (R)")
	root.PersistentFlags().IntVar(&keySize, "key-size", 20, "key prefix size in bytes (K)")
	root.PersistentFlags().IntVar(&poolCap, "pool-capacity", 64, "buffer pool capacity in pages")
	root.PersistentFlags().BoolVar(&allowDup, "allow-dup", true, "allow duplicate keys across records")

	viper.SetEnvPrefix("RECORDSTORE")
	viper.AutomaticEnv()
	for _, name := range []string{"pages", "btree", "page-size", "record-size", "key-size", "pool-capacity", "allow-dup"} {
		_ = viper.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		pagesPath = viper.GetString("pages")
		btreePath = viper.GetString("btree")
		pageSize = viper.GetInt("page-size")
		recordSize = viper.GetInt("record-size")
		keySize = viper.GetInt("key-size")
		poolCap = viper.GetInt("pool-capacity")
		allowDup = viper.GetBool("allow-dup")
	}

	root.AddCommand(newInitCmd(), newPutCmd(), newGetCmd(), newScanCmd(), newDeleteCmd(), newVerifyCmd(), newInspectCmd())
	return root
}

func newLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func openStore() (*store.Store, error) {
	return store.Open(pagesPath, btreePath, store.Config{
		PageSize:     pageSize,
		RecordSize:   recordSize,
		KeySize:      keySize,
		AllowDup:     allowDup,
		PoolCapacity: poolCap,
		Logger:       newLogger(),
	})
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create pages.bin/btree.bin with the given geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			return s.Close()
		},
	}
}
