package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"recordstore/store"
)

func printAll(it store.Iter) error {
	for it.Valid() {
		fmt.Println(hex.EncodeToString(it.Record()))
		var err error
		it, err = it.Next()
		if err != nil {
			it.Release()
			return err
		}
	}
	it.Release()
	return nil
}

// newInspectCmd dumps the leaf chain in leftmost-to-rightmost order, in the
// spirit of DaemonDB's bplustree/inspect.go BFS dump adapted to a
// leaf-linked-list store instead of a branching tree.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Dump the leaf chain for debugging",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Printf("layout: P=%d R=%d K=%d\n", pageSize, recordSize, keySize)

			lines, err := s.DebugPages()
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Println("  " + l)
			}
			return nil
		},
	}
}
