package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func decodeRecordArg(hexRecord string) ([]byte, error) {
	b, err := hex.DecodeString(hexRecord)
	if err != nil {
		return nil, errors.Wrap(err, "decoding hex record")
	}
	if len(b) != recordSize {
		return nil, errors.Errorf("record is %d bytes, want %d (--record-size)", len(b), recordSize)
	}
	return b, nil
}

func decodeKeyArg(hexKey string) ([]byte, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "decoding hex key")
	}
	if len(b) != keySize {
		return nil, errors.Errorf("key is %d bytes, want %d (--key-size)", len(b), keySize)
	}
	return b, nil
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <hex-record>",
		Short: "Insert a hex-encoded, fixed-width record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := decodeRecordArg(args[0])
			if err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			it, inserted, err := s.Insert(rec)
			if err != nil {
				return err
			}
			it.Release()
			fmt.Printf("inserted=%v\n", inserted)
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <hex-key>",
		Short: "Look up a record by key prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := decodeKeyArg(args[0])
			if err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			it, err := s.SearchLB(key)
			if err != nil {
				return err
			}
			defer it.Release()
			if !it.Valid() || !bytes.HasPrefix(it.Record(), key) {
				fmt.Println("not found")
				return nil
			}
			fmt.Println(hex.EncodeToString(it.Record()))
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Iterate records in key order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if from != "" {
				key, err := decodeKeyArg(from)
				if err != nil {
					return err
				}
				iter, err := s.SearchLB(key)
				if err != nil {
					return err
				}
				return printAll(iter)
			}
			iter, err := s.Begin()
			if err != nil {
				return err
			}
			return printAll(iter)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "hex key to start scanning from")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hex-record>",
		Short: "Erase an exact record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := decodeRecordArg(args[0])
			if err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			erased, err := s.Erase(rec)
			if err != nil {
				return err
			}
			fmt.Printf("erased=%v\n", erased)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Walk the leaf list and check non-decreasing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ok, err := s.VerifyOrder()
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("order violation detected")
			}
			fmt.Println("ok")
			return nil
		},
	}
}
