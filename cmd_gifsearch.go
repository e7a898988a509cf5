package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saucy/klipy"
	"saucy/tui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// runGIFSearchWorkflow searches Klipy and shows the results
func runGIFSearchWorkflow() bool {
	client, err := klipy.NewClientFromEnv()
	if err != nil {
		fmt.Println(errorStyle.Render("GIF search needs a Klipy key: " + err.Error()))
		fmt.Println(infoStyle.Render("Get one at https://klipy.com and set " + klipy.EnvKlipyKey + "."))
		return askToContinue()
	}

	var query string
	queryInput := huh.NewInput().
		Title("🔍 Search GIFs").
		Description("Leave empty to browse trending").
		Placeholder("excited capybara").
		Value(&query)

	err = huh.NewForm(huh.NewGroup(queryInput)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		if err == huh.ErrUserAborted {
			return true
		}
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return askToContinue()
	}

	var page *klipy.Page
	var searchErr error
	err = spinner.New().
		Title("🔍 Searching...").
		Action(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if strings.TrimSpace(query) == "" {
				page, searchErr = client.Trending(ctx, 1)
			} else {
				page, searchErr = client.Search(ctx, query, 1)
			}
		}).
		Run()

	if err != nil || searchErr != nil {
		if searchErr != nil {
			fmt.Println(errorStyle.Render("Error: " + searchErr.Error()))
		} else {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
		}
		return askToContinue()
	}

	if len(page.GIFs) == 0 {
		fmt.Println(infoStyle.Render("No GIFs found. Try another search."))
		return askToContinue()
	}

	// Let the user pick one to get its URL
	options := make([]huh.Option[int], 0, len(page.GIFs))
	for i, g := range page.GIFs {
		label := g.Title
		if label == "" {
			label = "(untitled)"
		}
		options = append(options, huh.NewOption(label, i))
	}

	var picked int
	pickSelect := huh.NewSelect[int]().
		Title(fmt.Sprintf("Found %d GIFs", len(page.GIFs))).
		Options(options...).
		Value(&picked)

	err = huh.NewForm(huh.NewGroup(pickSelect)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()
	if err != nil {
		return askToContinue()
	}

	g := page.GIFs[picked]
	title := g.Title
	if title == "" {
		title = "(untitled)"
	}
	details := "GIF: " + g.URL
	if g.MP4URL != "" {
		details += "\nMP4: " + g.MP4URL
	}
	if g.Width > 0 {
		details += fmt.Sprintf("\nSize: %dx%d", g.Width, g.Height)
	}
	fmt.Println(tui.Card("🎞  "+title, details, 72))

	return askToContinue()
}
