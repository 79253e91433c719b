package models

// RawPermissions is the permissions record returned by the Box API.
// Fields that Box omits for an item type stay nil.
type RawPermissions struct {
	CanDownload            *bool `json:"can_download,omitempty"`
	CanPreview             *bool `json:"can_preview,omitempty"`
	CanUpload              *bool `json:"can_upload,omitempty"`
	CanComment             *bool `json:"can_comment,omitempty"`
	CanRename              *bool `json:"can_rename,omitempty"`
	CanDelete              *bool `json:"can_delete,omitempty"`
	CanShare               *bool `json:"can_share,omitempty"`
	CanSetShareAccess      *bool `json:"can_set_share_access,omitempty"`
	CanInviteCollaborator  *bool `json:"can_invite_collaborator,omitempty"`
	CanAnnotate            *bool `json:"can_annotate,omitempty"`
	CanViewAnnotationsAll  *bool `json:"can_view_annotations_all,omitempty"`
	CanViewAnnotationsSelf *bool `json:"can_view_annotations_self,omitempty"`
}

// Permissions is a set of item capabilities.
type Permissions uint

const (
	PermDownload Permissions = 1 << iota
	PermPreview
	PermUpload
	PermComment
	PermRename
	PermDelete
	PermShare
	PermSetShareAccess
	PermInviteCollaborator
	PermAnnotate
	PermViewAnnotationsAll
	PermViewAnnotationsSelf
)

// PermViewAnnotations is either annotation visibility flag.
const PermViewAnnotations = PermViewAnnotationsAll | PermViewAnnotationsSelf

var permissionNames = []struct {
	perm Permissions
	name string
}{
	{PermDownload, "download"},
	{PermPreview, "preview"},
	{PermUpload, "upload"},
	{PermComment, "comment"},
	{PermRename, "rename"},
	{PermDelete, "delete"},
	{PermShare, "share"},
	{PermSetShareAccess, "set_share_access"},
	{PermInviteCollaborator, "invite_collaborator"},
	{PermAnnotate, "annotate"},
	{PermViewAnnotationsAll, "view_annotations_all"},
	{PermViewAnnotationsSelf, "view_annotations_self"},
}

// PermissionsFromRaw derives the permission set from a raw record.
// A nil record has no permissions.
func PermissionsFromRaw(raw *RawPermissions) Permissions {
	if raw == nil {
		return 0
	}
	var p Permissions
	set := func(flag *bool, perm Permissions) {
		if flag != nil && *flag {
			p |= perm
		}
	}
	set(raw.CanDownload, PermDownload)
	set(raw.CanPreview, PermPreview)
	set(raw.CanUpload, PermUpload)
	set(raw.CanComment, PermComment)
	set(raw.CanRename, PermRename)
	set(raw.CanDelete, PermDelete)
	set(raw.CanShare, PermShare)
	set(raw.CanSetShareAccess, PermSetShareAccess)
	set(raw.CanInviteCollaborator, PermInviteCollaborator)
	set(raw.CanAnnotate, PermAnnotate)
	set(raw.CanViewAnnotationsAll, PermViewAnnotationsAll)
	set(raw.CanViewAnnotationsSelf, PermViewAnnotationsSelf)
	return p
}

// Has reports whether all flags in q are in p.
func (p Permissions) Has(q Permissions) bool {
	return p&q == q
}

// Matches reports whether p is a subset of the item's permissions.
// The empty set matches every item.
func (p Permissions) Matches(item Item) bool {
	return ItemPermissions(item).Has(p)
}

// Names returns the names of the flags in p, in bit order.
func (p Permissions) Names() []string {
	names := make([]string, 0, len(permissionNames))
	for _, pn := range permissionNames {
		if p&pn.perm != 0 {
			names = append(names, pn.name)
		}
	}
	return names
}
