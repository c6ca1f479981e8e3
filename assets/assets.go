// Package assets holds the files shipped inside the binaries: email templates and the common passwords list.
package assets

import "embed"

//go:embed all:templates common-passwords.txt
var FS embed.FS

// CommonPasswordsFile is the path of the common passwords list in FS.
const CommonPasswordsFile = "common-passwords.txt"
