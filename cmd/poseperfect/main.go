// poseperfect: pose-matching obstacle game server and tools.
// Collaborators stream skeletons and contacts over /ws/play; the dashboard
// shows the session, the catalog and live tuning.
package main

func main() {
	Execute()
}
