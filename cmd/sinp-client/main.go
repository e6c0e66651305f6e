// Command sinp-client sends a single intent to a SINP server and prints
// the result. Usage: sinp-client [addr] [intent] [confidence]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/sinp-protocol/sinp/client"
)

func main() {
	addr := "127.0.0.1:9000"
	intent := "echo hello world"
	confidence := 0.90

	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	if len(os.Args) > 2 {
		intent = os.Args[2]
	}
	if len(os.Args) > 3 {
		if c, err := strconv.ParseFloat(os.Args[3], 64); err == nil {
			confidence = c
		}
	}

	fmt.Printf("Connecting to SINP server at %s...\n", addr)
	c, err := client.Connect(addr)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer c.Close()
	fmt.Println("Connected!")

	fmt.Printf("\nSending: %q\n", intent)
	result, err := c.SendIntent(intent, confidence)
	if err != nil {
		log.Fatalf("send_intent failed: %v", err)
	}
	fmt.Printf("Response kind: %s\n", result.Kind)

	if data := c.Result(); data != nil {
		var pretty map[string]interface{}
		if err := json.Unmarshal(data, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Printf("\nResult: %s\n", out)
		}
	}
}
