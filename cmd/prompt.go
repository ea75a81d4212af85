package cmd

import (
	"github.com/manifoldco/promptui"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

// confirm asks a yes/no question. autoApprove skips the prompt.
func confirm(label string, autoApprove bool) (bool, error) {
	if autoApprove {
		return true, nil
	}

	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return false, err
	}

	return answer == PromptYes, nil
}
