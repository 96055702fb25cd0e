package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/client/api"
	"github.com/dmitrijs2005/gophdiary/internal/client/cache"
)

const dateLayout = "2006-01-02 15:04"

func (a *App) diaryID(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, "Enter diary id", a.out)
}

// Prompt prints the current summarization prompt.
func (a *App) Prompt(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	p, err := a.api.Prompt(ctx, a.token)
	if err != nil {
		return a.checkSession(ctx, err)
	}
	if p == "" {
		a.println("(no prompt set)")
		return nil
	}
	a.println(p)
	return nil
}

// SetPrompt replaces the summarization prompt; an empty line clears it.
func (a *App) SetPrompt(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	p, err := getSimpleText(a.reader, "Enter new prompt (empty to clear)", a.out)
	if err != nil {
		return err
	}
	if err := a.api.SetPrompt(ctx, a.token, p); err != nil {
		return a.checkSession(ctx, err)
	}
	a.println("Prompt saved")
	return nil
}

// Write reads a multi-line conversation and turns it into a diary entry.
func (a *App) Write(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	conversation, err := GetMultiline(a.reader, "Type the conversation", a.out)
	if err != nil {
		return err
	}
	created, err := a.api.CreateDiary(ctx, a.token, conversation)
	if err != nil {
		return a.checkSession(ctx, err)
	}
	a.println("Diary", created.ID, "created")
	a.println("Summary:", created.Summary)
	return nil
}

// List prints the diary list. When the server cannot be reached the last
// cached list is shown instead.
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	items, err := a.api.Diaries(ctx, a.token)
	if api.IsUnreachable(err) {
		cached, cacheErr := a.store.List(ctx, a.userName)
		if cacheErr != nil {
			return cacheErr
		}
		a.println("Server unavailable, showing cached list")
		a.printList(cached)
		return nil
	}
	if err != nil {
		return a.checkSession(ctx, err)
	}

	rows := make([]cache.Item, 0, len(items))
	for _, it := range items {
		rows = append(rows, cache.Item{ID: it.ID, Title: it.Title, Date: it.Date, Thumbnail: it.Thumbnail})
	}
	if err := a.store.SaveList(ctx, a.userName, rows); err != nil {
		return err
	}
	a.printList(rows)
	return nil
}

func (a *App) printList(items []cache.Item) {
	if len(items) == 0 {
		a.println("No diaries yet")
		return
	}
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = "(untitled)"
		}
		a.println(fmt.Sprintf("%s  %s  %s", it.ID, it.Date.Local().Format(dateLayout), title))
	}
}

// Show prints a single diary.
func (a *App) Show(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	id, err := a.diaryID(args)
	if err != nil {
		return err
	}
	d, err := a.api.Diary(ctx, a.token, id)
	if err != nil {
		return a.checkSession(ctx, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %s\n", d.ID)
	fmt.Fprintf(&b, "Date:      %s\n", d.Date.Local().Format(time.RFC1123))
	fmt.Fprintf(&b, "Title:     %s\n", d.Title)
	fmt.Fprintf(&b, "Thumbnail: %s\n", d.Thumbnail)
	fmt.Fprintf(&b, "Video:     %s\n", d.Video)
	fmt.Fprintf(&b, "Summary:   %s\n", d.Summary)
	fmt.Fprintf(&b, "Conversation:\n%s", d.Conversation)
	a.println(b.String())
	return nil
}

// Title renames a diary.
func (a *App) Title(ctx context.Context, args []string) error {
	return a.update(ctx, args, "Enter new title", a.api.SetTitle)
}

// Thumbnail sets a diary's thumbnail reference.
func (a *App) Thumbnail(ctx context.Context, args []string) error {
	return a.update(ctx, args, "Enter thumbnail reference", a.api.SetThumbnail)
}

func (a *App) update(ctx context.Context, args []string, prompt string,
	call func(ctx context.Context, token, id, value string) error) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	id, err := a.diaryID(args)
	if err != nil {
		return err
	}
	value, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if err := call(ctx, a.token, id, value); err != nil {
		return a.checkSession(ctx, err)
	}
	a.println("Updated")
	return nil
}

// Video prints a playable link for the diary's video.
func (a *App) Video(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	id, err := a.diaryID(args)
	if err != nil {
		return err
	}
	u, err := a.api.VideoURL(ctx, a.token, id)
	if err != nil {
		return a.checkSession(ctx, err)
	}
	a.println(u)
	return nil
}
