package clientcli

import (
	"fmt"
	"io"
)

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Commands:
  register <user> <email>        Create an account (prompts for password)
  login <user>                   Log in (prompts for password)
  logout                         Forget the stored session
  whoami                         Show the current session
  ping                           Check the session against the auth service
  ls                             List your files
  search <name>                  Search files by name on the server
  filter [term]                  Filter the last listing locally
  upload <path>...               Upload one or more local files
  download <id> [dest]           Download a file (default: its own name)
  share <id>                     Create a public share link
  rm <id>                        Delete a file
  admin-ls                       List every file (admin only)
  version                        Show build information
  help                           Show this help
  exit                           Quit the client`)
}
