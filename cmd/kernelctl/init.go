package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/kernelkit/pkg/kernel"
	"github.com/spf13/cobra"
)

func newInitCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a kernel options file interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(c.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.configPath)
			}

			answers, err := runWizard()
			if err != nil {
				return err
			}

			opts, err := answers.options()
			if err != nil {
				return err
			}

			if err := kernel.SaveOptions(c.configPath, opts); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("wrote "+c.configPath))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

// wizardAnswers holds the raw form values. Empty strings mean "leave unset".
type wizardAnswers struct {
	Provider    string
	ModelID     string
	Endpoint    string
	APIKeyEnv   string
	Type        string
	MaxTokens   string
	Temperature string

	ConfigureLimits   bool
	RequestsPerSecond string
	RequestsPerMinute string
	RequestsPerDay    string
	TokensPerMinute   string
	TokensPerDay      string
}

func runWizard() (wizardAnswers, error) {
	a := wizardAnswers{Provider: kernel.ProviderOpenAI, Type: kernel.Chat.String(), APIKeyEnv: "OPENAI_API_KEY"}

	typeOpts := make([]huh.Option[string], 0, len(kernel.Types()))
	for _, t := range kernel.Types() {
		typeOpts = append(typeOpts, huh.NewOption(t.String(), t.String()))
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Provider").
			Options(
				huh.NewOption("OpenAI", kernel.ProviderOpenAI),
				huh.NewOption("Anthropic", kernel.ProviderAnthropic),
				huh.NewOption("Gemini", kernel.ProviderGemini),
				huh.NewOption("Grok", kernel.ProviderGrok),
			).
			Value(&a.Provider),
		huh.NewSelect[string]().Title("Kernel type").Options(typeOpts...).Value(&a.Type),
	)).Run(); err != nil {
		return a, err
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Model (empty = provider default)").Value(&a.ModelID),
		huh.NewInput().Title("Endpoint (empty = provider default)").Value(&a.Endpoint),
		huh.NewInput().Title("API key env var").Value(&a.APIKeyEnv),
		huh.NewInput().Title("Max tokens (empty = provider default)").Value(&a.MaxTokens).Validate(validateOptionalNonNegativeInt),
		huh.NewInput().Title("Temperature 0-2 (empty = provider default)").Value(&a.Temperature).Validate(validateOptionalTemperature),
		huh.NewConfirm().Title("Record usage limits?").Value(&a.ConfigureLimits),
	)).Run(); err != nil {
		return a, err
	}

	if !a.ConfigureLimits {
		return a, nil
	}

	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Requests per second").Value(&a.RequestsPerSecond).Validate(validateOptionalNonNegativeInt),
		huh.NewInput().Title("Requests per minute").Value(&a.RequestsPerMinute).Validate(validateOptionalNonNegativeInt),
		huh.NewInput().Title("Requests per day").Value(&a.RequestsPerDay).Validate(validateOptionalNonNegativeInt),
		huh.NewInput().Title("Tokens per minute").Value(&a.TokensPerMinute).Validate(validateOptionalNonNegativeInt),
		huh.NewInput().Title("Tokens per day").Value(&a.TokensPerDay).Validate(validateOptionalNonNegativeInt),
	)).Run()

	return a, err
}

// options converts the answers. The API key is written as an environment
// reference so the secret never lands in the file.
func (a wizardAnswers) options() (*kernel.Options, error) {
	opts := &kernel.Options{
		Provider: optString(a.Provider),
		ModelID:  optString(a.ModelID),
		Endpoint: optString(a.Endpoint),
	}

	if env := strings.TrimSpace(a.APIKeyEnv); env != "" {
		opts.APIKey = kernel.Ptr("${" + strings.Trim(env, "${}") + "}")
	}

	if a.Type != "" {
		t, err := kernel.ParseType(a.Type)
		if err != nil {
			return nil, err
		}
		opts.Type = &t
	}

	var errs []error
	opts.MaxTokens = optInt("max tokens", a.MaxTokens, &errs)
	opts.RequestsPerSecond = optInt("requests per second", a.RequestsPerSecond, &errs)
	opts.RequestsPerMinute = optInt("requests per minute", a.RequestsPerMinute, &errs)
	opts.RequestsPerDay = optInt("requests per day", a.RequestsPerDay, &errs)
	opts.TokensPerMinute = optInt("tokens per minute", a.TokensPerMinute, &errs)
	opts.TokensPerDay = optInt("tokens per day", a.TokensPerDay, &errs)

	if s := strings.TrimSpace(a.Temperature); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("temperature: %w", err))
		} else {
			opts.Temperature = &v
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return opts, nil
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optInt(name, s string, errs *[]error) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return nil
	}
	return &n
}

func validateOptionalNonNegativeInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateOptionalTemperature(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 2 {
		return fmt.Errorf("must be a number between 0 and 2")
	}
	return nil
}
