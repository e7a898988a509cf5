package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/creativeprojects/go-selfupdate"
)

const updateRepo = "saucy-app/saucy"

// runSelfUpdate checks GitHub releases and replaces the running binary
// when a newer version exists
func runSelfUpdate() {
	if version == "dev" {
		fmt.Println(infoStyle.Render("Running a dev build; self-update is disabled."))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var latest *selfupdate.Release
	var found bool
	var checkErr error
	err := spinner.New().
		Title("🍊 Checking for updates...").
		Action(func() {
			latest, found, checkErr = selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepo))
		}).
		Run()
	if err != nil {
		checkErr = err
	}
	if checkErr != nil {
		fmt.Println(errorStyle.Render("Error: could not check for updates: " + checkErr.Error()))
		return
	}
	if !found {
		fmt.Println(infoStyle.Render("No releases found for " + updateRepo + "."))
		return
	}
	if latest.LessOrEqual(version) {
		fmt.Println(successStyle.Render(fmt.Sprintf("✅ You are on the latest version (%s).", version)))
		return
	}

	fmt.Println(infoStyle.Render(fmt.Sprintf("Update available: %s -> %s", version, latest.Version())))

	exe, err := os.Executable()
	if err != nil {
		fmt.Println(errorStyle.Render("Error: could not locate the running binary: " + err.Error()))
		return
	}

	var updateErr error
	err = spinner.New().
		Title("🍊 Downloading update...").
		Action(func() {
			updateErr = selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe)
		}).
		Run()
	if err != nil {
		updateErr = err
	}
	if updateErr != nil {
		fmt.Println(errorStyle.Render("Error: update failed: " + updateErr.Error()))
		return
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✅ Updated to %s. Restart saucy to use it.", latest.Version())))
}
