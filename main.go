package main

import "github.com/campushr/hrms-portal/cmd"

func main() {
	cmd.Execute()
}
