package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saucy/credential"
	"saucy/gemini"
	"saucy/studio"

	"github.com/charmbracelet/huh"
)

// runKeySetup stores a Gemini API key for future runs
func runKeySetup(st *studio.Studio) bool {
	cred := st.Credential(context.Background())
	if !cred.Demo {
		fmt.Println(infoStyle.Render(fmt.Sprintf("Current key source: %s", cred.Origin)))
	} else {
		fmt.Println(infoStyle.Render("No key configured yet; the studio is in demo mode."))
		if gemini.CheckConfig() == nil {
			// Env var is set but the resolver rejected it, so it's the
			// placeholder or too short to be real
			fmt.Println(infoStyle.Render("An environment key was found but doesn't look usable."))
		} else {
			fmt.Println(infoStyle.Render(gemini.GetAPIKeyHelp()))
		}
	}

	var key string
	keyInput := huh.NewInput().
		Title("🔑 Gemini API key").
		Description("Get one at https://aistudio.google.com/apikey").
		EchoMode(huh.EchoModePassword).
		Validate(func(v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				return fmt.Errorf("key cannot be empty")
			}
			if v == credential.PlaceholderKey {
				return fmt.Errorf("that is the placeholder, not a real key")
			}
			if len(v) <= 20 {
				return fmt.Errorf("that looks too short to be a Gemini key")
			}
			return nil
		}).
		Value(&key)

	err := huh.NewForm(huh.NewGroup(keyInput)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		if err == huh.ErrUserAborted {
			return true
		}
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return askToContinue()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := st.SaveKey(ctx, strings.TrimSpace(key)); err != nil {
		fmt.Println(errorStyle.Render("Error: could not save the key: " + err.Error()))
		return askToContinue()
	}

	fmt.Println(successStyle.Render("✅ Key saved. Generation now uses the real providers."))
	return askToContinue()
}
