package entity

import (
	"maps"
	"slices"
)

const RootFolderId = "root"

type Folder struct {
	Id       string
	Title    string
	ParentId string
	Children []string
}

func (f *Folder) Clone() *Folder {
	c := *f
	c.Children = slices.Clone(f.Children)
	return &c
}

// Tree is the workspace hierarchy: folders, and the reference nodes that hang
// off them. Document ids appear only as folder children.
type Tree struct {
	Folders    map[string]*Folder
	References map[string]*ReferenceNode
}

func NewTree() *Tree {
	return &Tree{
		Folders: map[string]*Folder{
			RootFolderId: {Id: RootFolderId, Title: "Root"},
		},
		References: make(map[string]*ReferenceNode),
	}
}

// Clone deep-copies the tree so mutations can be applied and swapped in whole.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		Folders:    make(map[string]*Folder, len(t.Folders)),
		References: make(map[string]*ReferenceNode, len(t.References)),
	}
	for id, f := range t.Folders {
		c.Folders[id] = f.Clone()
	}
	for id, r := range t.References {
		rc := *r
		c.References[id] = &rc
	}
	if _, ok := c.Folders[RootFolderId]; !ok {
		c.Folders[RootFolderId] = &Folder{Id: RootFolderId, Title: "Root"}
	}
	return c
}

// ParentOf returns the folder holding childId, or "" if it is not placed.
func (t *Tree) ParentOf(childId string) string {
	for _, id := range slices.Sorted(maps.Keys(t.Folders)) {
		if slices.Contains(t.Folders[id].Children, childId) {
			return id
		}
	}
	return ""
}

// Detach removes childId from whichever folder holds it.
func (t *Tree) Detach(childId string) bool {
	removed := false
	for _, f := range t.Folders {
		if i := slices.Index(f.Children, childId); i >= 0 {
			f.Children = slices.Delete(f.Children, i, i+1)
			removed = true
		}
	}
	return removed
}

// FindReference returns the node pointing at (kind, originId) from parentId.
func (t *Tree) FindReference(kind OriginKind, originId, parentId string) *ReferenceNode {
	for _, r := range t.References {
		if r.OriginKind == kind && r.OriginId == originId && r.ParentId == parentId {
			return r
		}
	}
	return nil
}
