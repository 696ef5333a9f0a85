package main

import (
	"encoding/json"
	"fmt"
	"os"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed encoding output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
