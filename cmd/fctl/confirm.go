package main

import (
	"fmt"
	"strings"
)

// confirmAction asks the operator to confirm a mutating action. The
// details, if any, are listed above the prompt so the operator sees
// what the action touches. --yes skips the prompt.
func confirmAction(prompt string, details []string) bool {
	if yesFlag {
		return true
	}
	for _, d := range details {
		fmt.Printf("  - %s\n", d)
	}
	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
