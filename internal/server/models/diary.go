package models

import "time"

// Diary is a generated diary entry. UserID is the owner and never changes
// after creation; only Title and Thumbnail may be updated.
type Diary struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user"`
	Conversation string    `json:"conversation"`
	Summary      string    `json:"summary"`
	Video        string    `json:"video"`
	Date         time.Time `json:"date"`
	Title        string    `json:"title"`
	Thumbnail    string    `json:"thumbnail"`
}

// DiaryListItem is the projection returned when listing a user's diaries.
type DiaryListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Thumbnail string    `json:"thumbnail"`
}

// ListItem projects d onto the list view.
func (d *Diary) ListItem() DiaryListItem {
	return DiaryListItem{ID: d.ID, Title: d.Title, Date: d.Date, Thumbnail: d.Thumbnail}
}
