package browse

import (
	"slices"

	"github.com/rescale/box-browse/internal/models"
	"github.com/rescale/box-browse/internal/predicate"
)

// ActionID identifies an entry of a folder's add menu.
type ActionID string

// Default add menu actions.
const (
	ActionCreateFolder ActionID = "box-browse.createFolder"
	ActionImportPhoto  ActionID = "box-browse.importPhoto"
)

type menuCustomization func(folder *models.Folder, suggested []ActionID) []ActionID

// FolderActions customizes the add menu of folder listings. The zero
// value offers the default menu: folder creation where uploads are
// allowed.
//
// FolderActions is a value; each method returns a new customization
// applied after the existing ones.
type FolderActions struct {
	customize menuCustomization
}

// AddMenu returns the actions offered in folder, in order.
func (a FolderActions) AddMenu(folder *models.Folder) []ActionID {
	suggested := defaultAddMenu(folder)
	if a.customize == nil {
		return suggested
	}
	return a.customize(folder, suggested)
}

// Allows reports whether id is offered in folder.
func (a FolderActions) Allows(folder *models.Folder, id ActionID) bool {
	return slices.Contains(a.AddMenu(folder), id)
}

// Disallow removes the given actions from every menu.
func (a FolderActions) Disallow(ids ...ActionID) FolderActions {
	return a.then(func(_ *models.Folder, actions []ActionID) []ActionID {
		return slices.DeleteFunc(actions, func(id ActionID) bool {
			return slices.Contains(ids, id)
		})
	})
}

// InsertAction appends id to the menu of folders granting required.
func (a FolderActions) InsertAction(required models.Permissions, id ActionID) FolderActions {
	return a.InsertActionWhere(predicate.HasPermissions[*models.Folder](required), id)
}

// InsertActionWhere appends id to the menu of folders matching match.
func (a FolderActions) InsertActionWhere(match predicate.Predicate[*models.Folder], id ActionID) FolderActions {
	return a.then(func(folder *models.Folder, actions []ActionID) []ActionID {
		if match(folder) && !slices.Contains(actions, id) {
			actions = append(actions, id)
		}
		return actions
	})
}

func (a FolderActions) then(next menuCustomization) FolderActions {
	prev := a.customize
	return FolderActions{customize: func(folder *models.Folder, suggested []ActionID) []ActionID {
		if prev != nil {
			suggested = prev(folder, suggested)
		}
		return next(folder, slices.Clone(suggested))
	}}
}

func defaultAddMenu(folder *models.Folder) []ActionID {
	if models.ItemPermissions(folder).Has(models.PermUpload) {
		return []ActionID{ActionCreateFolder}
	}
	return nil
}
