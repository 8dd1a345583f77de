// commentsctl — консольный клиент сервиса комментариев.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(dialRemote).Execute(); err != nil {
		os.Exit(1)
	}
}
