// Command gridwire exercises the grid client protocol from a terminal: it can
// run a small in-memory member, ping a member, and decode captured traffic.
package main

func main() {
	Execute()
}
