package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arborhq/arbor/client"
)

func newClient() *client.Client {
	var opts []client.Option
	if tokenFlag != "" {
		opts = append(opts, client.WithToken(tokenFlag))
	}
	return client.New(apiFlag, opts...)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, string(data))
	return nil
}
