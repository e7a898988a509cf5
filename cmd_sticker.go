package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saucy/studio"
	"saucy/tui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// runStickerWorkflow runs the Bubble Tea sticker studio
func runStickerWorkflow(st *studio.Studio) bool {
	notice := ""
	cred := st.Credential(context.Background())
	if cred.Demo {
		notice = "no API key, results are simulated"
	}

	continueApp, err := tui.RunStickerUI(st, notice)
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return askToContinue()
	}
	return continueApp
}

// runBrainstormWorkflow asks for a theme and prints sticker ideas
func runBrainstormWorkflow(st *studio.Studio) bool {
	var theme string
	themeInput := huh.NewInput().
		Title("🍊 What's the sticker pack about?").
		Description("A theme, a mood, an animal, anything").
		Placeholder("capybaras at the office").
		Value(&theme)

	err := huh.NewForm(huh.NewGroup(themeInput)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		if err == huh.ErrUserAborted {
			return true
		}
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return askToContinue()
	}

	if strings.TrimSpace(theme) == "" {
		return true
	}

	var ideas []string
	var brainstormErr error
	err = spinner.New().
		Title("🍊 Simmering ideas...").
		Action(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			ideas, brainstormErr = st.Brainstorm(ctx, theme)
		}).
		Run()

	if err != nil || brainstormErr != nil {
		if brainstormErr != nil {
			fmt.Println(errorStyle.Render("Error: " + brainstormErr.Error()))
		} else {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
		}
		return askToContinue()
	}

	var list strings.Builder
	for i, idea := range ideas {
		list.WriteString(fmt.Sprintf("%d. %s\n", i+1, idea))
	}
	fmt.Println(boxStyle.Render(fmt.Sprintf("💡 Ideas for %q\n\n%s", theme, strings.TrimRight(list.String(), "\n"))))

	return askToContinue()
}
