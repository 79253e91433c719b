// Package models holds the Box item types shared by the browsing layers.
package models

import (
	"time"
)

// Item type tags as reported by the Box API.
const (
	TypeFolder  = "folder"
	TypeFile    = "file"
	TypeWebLink = "web_link"
)

// RootFolderID is the ID Box uses for "All Files".
const RootFolderID = "0"

// Item is one entry of a folder listing or search result.
// It is implemented only by *Folder, *File and *WebLink.
type Item interface {
	itemType() string
}

// Identifier is the identity of an item. Box IDs are only unique per type.
type Identifier struct {
	Type string
	ID   string
}

func (i Identifier) String() string {
	return i.Type + ":" + i.ID
}

// PathCollection is the ordered list of ancestors, root first.
type PathCollection struct {
	TotalCount int      `json:"total_count"`
	Entries    []Folder `json:"entries"`
}

// SharedLink is the shared link state of an item.
type SharedLink struct {
	URL               string `json:"url"`
	DownloadURL       string `json:"download_url,omitempty"`
	VanityURL         string `json:"vanity_url,omitempty"`
	Access            string `json:"access,omitempty"`
	EffectiveAccess   string `json:"effective_access,omitempty"`
	IsPasswordEnabled bool   `json:"is_password_enabled,omitempty"`
}

// Folder is a Box folder.
type Folder struct {
	Type              string          `json:"type"`
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ModifiedAt        *time.Time      `json:"modified_at,omitempty"`
	PathCollection    *PathCollection `json:"path_collection,omitempty"`
	SharedLink        *SharedLink     `json:"shared_link,omitempty"`
	Permissions       *RawPermissions `json:"permissions,omitempty"`
	HasCollaborations bool            `json:"has_collaborations,omitempty"`
	IsExternallyOwned bool            `json:"is_externally_owned,omitempty"`
}

// File is a Box file.
type File struct {
	Type           string          `json:"type"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Extension      string          `json:"extension,omitempty"`
	SHA1           string          `json:"sha1,omitempty"`
	Size           int64           `json:"size,omitempty"`
	ModifiedAt     *time.Time      `json:"modified_at,omitempty"`
	PathCollection *PathCollection `json:"path_collection,omitempty"`
	SharedLink     *SharedLink     `json:"shared_link,omitempty"`
	Permissions    *RawPermissions `json:"permissions,omitempty"`
}

// WebLink is a Box bookmark.
type WebLink struct {
	Type           string          `json:"type"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	URL            string          `json:"url,omitempty"`
	ModifiedAt     *time.Time      `json:"modified_at,omitempty"`
	PathCollection *PathCollection `json:"path_collection,omitempty"`
	SharedLink     *SharedLink     `json:"shared_link,omitempty"`
	Permissions    *RawPermissions `json:"permissions,omitempty"`
}

func (*Folder) itemType() string  { return TypeFolder }
func (*File) itemType() string    { return TypeFile }
func (*WebLink) itemType() string { return TypeWebLink }

// ItemID returns the identifier of an item.
func ItemID(item Item) Identifier {
	switch it := item.(type) {
	case *Folder:
		return Identifier{Type: TypeFolder, ID: it.ID}
	case *File:
		return Identifier{Type: TypeFile, ID: it.ID}
	case *WebLink:
		return Identifier{Type: TypeWebLink, ID: it.ID}
	}
	return Identifier{}
}

// ItemName returns the display name of an item.
func ItemName(item Item) string {
	switch it := item.(type) {
	case *Folder:
		return it.Name
	case *File:
		return it.Name
	case *WebLink:
		return it.Name
	}
	return ""
}

// ItemModifiedAt returns the last modification time, if known.
func ItemModifiedAt(item Item) *time.Time {
	switch it := item.(type) {
	case *Folder:
		return it.ModifiedAt
	case *File:
		return it.ModifiedAt
	case *WebLink:
		return it.ModifiedAt
	}
	return nil
}

// ItemPath returns the ancestors of an item, root first.
func ItemPath(item Item) []Folder {
	var pc *PathCollection
	switch it := item.(type) {
	case *Folder:
		pc = it.PathCollection
	case *File:
		pc = it.PathCollection
	case *WebLink:
		pc = it.PathCollection
	}
	if pc == nil {
		return nil
	}
	return pc.Entries
}

// ItemSharedLink returns the shared link of an item, or nil.
func ItemSharedLink(item Item) *SharedLink {
	switch it := item.(type) {
	case *Folder:
		return it.SharedLink
	case *File:
		return it.SharedLink
	case *WebLink:
		return it.SharedLink
	}
	return nil
}

// ItemPermissions derives the permission set of an item.
// Web links never carry download, upload or invite permissions.
func ItemPermissions(item Item) Permissions {
	switch it := item.(type) {
	case *Folder:
		return PermissionsFromRaw(it.Permissions)
	case *File:
		return PermissionsFromRaw(it.Permissions)
	case *WebLink:
		return PermissionsFromRaw(it.Permissions) &^ (PermDownload | PermUpload | PermInviteCollaborator)
	}
	return 0
}

// CanMoveOrCopy reports whether an item may be moved or copied elsewhere.
// Files and folders need download permission; web links always can.
func CanMoveOrCopy(item Item) bool {
	if _, ok := item.(*WebLink); ok {
		return true
	}
	return ItemPermissions(item).Has(PermDownload)
}

// AsFolder returns the folder if item is one.
func AsFolder(item Item) (*Folder, bool) {
	f, ok := item.(*Folder)
	return f, ok
}

// AsFile returns the file if item is one.
func AsFile(item Item) (*File, bool) {
	f, ok := item.(*File)
	return f, ok
}

// IsFolder reports whether item is a folder.
func IsFolder(item Item) bool {
	_, ok := item.(*Folder)
	return ok
}
