package main

import "fmt"

func versionString() string {
	return fmt.Sprintf("relay %s (%s)", version, commit)
}
