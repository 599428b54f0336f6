package main

import "github.com/Stratus-Compute-Labs/worker-toolkit/internal/cmd"

func main() {
	cmd.Execute()
}
