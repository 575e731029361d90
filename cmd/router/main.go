// Command router runs the llm-router gateway process.
package main

func main() {
	Execute()
}
