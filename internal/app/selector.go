package app

import (
	"junctionmirror/internal/domain"
	appErrors "junctionmirror/internal/errors"
)

// Selector decides how one directory is represented in the mirror.
type Selector struct {
	Policy domain.ExclusionPolicy
	Mapper domain.PathMapper
}

// CanLink reports whether node can be mirrored as a single link: none of its
// immediate subdirectories carries an exclusive name.
func (s Selector) CanLink(node domain.DirectoryNode) bool {
	return !s.Policy.HasExclusiveChild(node.SubdirNames())
}

// Select returns the actions for node. A linkable directory yields one
// LinkWhole. Otherwise the directory is materialized, every non-exclusive
// subdirectory is linked one level down and every loose file is copied.
func (s Selector) Select(node domain.DirectoryNode) ([]domain.MirrorAction, error) {
	target, err := s.target(node.Path)
	if err != nil {
		return nil, err
	}

	if s.CanLink(node) {
		return []domain.MirrorAction{{Kind: domain.LinkWhole, Source: node.Path, Target: target}}, nil
	}

	actions := []domain.MirrorAction{{Kind: domain.MaterializeAndDescend, Source: node.Path, Target: target}}
	for _, sub := range node.Subdirs {
		if s.Policy.IsExclusive(baseName(sub)) {
			continue
		}
		subTarget, err := s.target(sub)
		if err != nil {
			return nil, err
		}
		actions = append(actions, domain.MirrorAction{Kind: domain.LinkWhole, Source: sub, Target: subTarget})
	}
	for _, file := range node.Files {
		fileTarget, err := s.target(file)
		if err != nil {
			return nil, err
		}
		actions = append(actions, domain.MirrorAction{Kind: domain.CopyFile, Source: file, Target: fileTarget})
	}
	return actions, nil
}

func (s Selector) target(path string) (string, error) {
	target, err := s.Mapper.Map(path)
	if err != nil {
		return "", appErrors.Wrap(appErrors.PathContract, "map", path, err)
	}
	return target, nil
}
