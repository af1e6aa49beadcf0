package main

import "expensetracker/internal/commands"

func main() {
	commands.Execute()
}
