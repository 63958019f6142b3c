package utils

import (
	yip "github.com/mudler/yip/pkg/schema"
)

// GetFileStage builds a single-file stage, the declarative unit most
// provisioning steps are made of. Content is the full desired file, never a
// fragment to append.
func GetFileStage(stageName, path string, permissions uint32, content string) yip.Stage {
	return yip.Stage{
		Name: stageName,
		Files: []yip.File{
			{
				Path:        path,
				Permissions: permissions,
				Content:     content,
			},
		},
	}
}
