package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	alarmdb "github.com/dmaitland/alarm-controller/db"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
)

func main() {
	var dbPath, command string
	var pin, count int
	flag.StringVar(&dbPath, "db", "data/alarm.db", "Path to the SQLite event database")
	flag.StringVar(&command, "cmd", "", "Command to run: list-events, counts, clear-events, pulse")
	flag.IntVar(&pin, "pin", -1, "BCM pin number for the pulse command")
	flag.IntVar(&count, "count", 10, "Number of toggles for the pulse command")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of alarm-debug:")
		fmt.Println("  -db string\tPath to the SQLite event database (default 'data/alarm.db')")
		fmt.Println("  -cmd string\tCommand to run: list-events, counts, clear-events, pulse")
		fmt.Println("  -pin int\tBCM pin number for the pulse command")
		fmt.Println("  -count int\tNumber of toggles for the pulse command (default 10)")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "list-events":
		err = listEvents(dbPath)
	case "counts":
		err = showCounts(dbPath)
	case "clear-events":
		err = clearEvents(dbPath)
	case "pulse":
		if pin < 0 {
			fmt.Println("Error: -pin is required for pulse")
			os.Exit(1)
		}
		err = pulsePin(pin, count)
	default:
		fmt.Printf("Unknown command %q\n", command)
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func listEvents(dbPath string) error {
	conn, err := alarmdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, err := alarmdb.RecentEvents(conn, 50)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No recorded alarms.")
		return nil
	}
	for _, ev := range events {
		fmt.Printf("%6d  %-12s  %s\n", ev.ID, ev.ZoneID, ev.DetectedAt.Local().Format(time.RFC3339))
	}
	return nil
}

func showCounts(dbPath string) error {
	conn, err := alarmdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	counts, err := alarmdb.CountEventsByZone(conn)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Println("No recorded alarms.")
		return nil
	}
	for zone, n := range counts {
		fmt.Printf("%-12s  %d\n", zone, n)
	}
	return nil
}

func clearEvents(dbPath string) error {
	conn, err := alarmdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	return alarmdb.ClearEvents(conn)
}

// pulsePin toggles an output for wiring checks: is that LED really on
// GPIO 15, does the buzzer actually buzz.
func pulsePin(pin, count int) error {
	p := model.GPIOPin{Number: pin, ActiveHigh: true}
	for i := 0; i < count; i++ {
		gpio.Toggle(p)
		time.Sleep(100 * time.Millisecond)
	}
	gpio.Deactivate(p)
	return nil
}
