// main.go - Main entry point for the SM83->68000 dynamic binary translator

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nA Game Boy SM83->68000 dynamic binary translator.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

// flushMonitorOutput prints every scrollback line the monitor produced since
// the last drain, the host-side stdout sink for appendOutput the way the
// teacher's own console writer drains its scrollback each tick.
func flushMonitorOutput(mon *MachineMonitor, printed *int) {
	lines := mon.OutputLines()
	for ; *printed < len(lines); *printed++ {
		fmt.Println(lines[*printed].Text)
	}
}

func main() {
	romPath := flag.String("rom", "", "path to a Game Boy ROM image")
	cyclesPerExit := flag.Uint("cycles-per-exit", 0, "dispatcher cycle budget per host re-entry (0 = one scanline)")
	singleInstruction := flag.Bool("single-instruction", false, "compile one guest instruction per block instead of a full basic block")
	monitorEnabled := flag.Bool("monitor", false, "start with the machine monitor console active and the CPU frozen")
	videoBackend := flag.String("video", "ebiten", "video backend: ebiten or headless")
	audioBackend := flag.String("audio", "oto", "audio backend: oto or headless")
	flag.Parse()

	boilerPlate()

	if *romPath == "" {
		fmt.Println("Usage: intuition_engine -rom path/to/game.gb [-monitor] [-cycles-per-exit N] [-single-instruction] [-video ebiten|headless] [-audio oto|headless]")
		os.Exit(1)
	}

	rom, err := LoadROM(*romPath)
	if err != nil {
		fmt.Printf("Failed to load ROM: %v\n", err)
		os.Exit(1)
	}

	info, err := ParseCartridgeHeader(rom)
	if err != nil {
		fmt.Printf("Failed to read cartridge header: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded: %s\n", info)

	hw := NewDMG(rom)

	driver := NewDriver(hw, DriverConfig{
		CyclesPerExit:     uint32(*cyclesPerExit),
		SingleInstruction: *singleInstruction,
	})

	// Only one video backend is ever compiled in (video_backend_ebiten.go or
	// video_backend_headless.go, selected by the "headless" build tag), so
	// -video exists to document intent rather than branch at runtime.
	if *videoBackend != "ebiten" && *videoBackend != "headless" {
		fmt.Printf("Unknown video backend: %s\n", *videoBackend)
		os.Exit(1)
	}
	video, err := NewVideoOutput(VIDEO_BACKEND_EBITEN)
	if err != nil {
		fmt.Printf("Failed to initialize video: %v\n", err)
		os.Exit(1)
	}
	if err := video.SetDisplayConfig(DisplayConfig{Width: dmgWidth, Height: dmgHeight, Scale: 2}); err != nil {
		fmt.Printf("Failed to configure video: %v\n", err)
		os.Exit(1)
	}
	if err := video.Start(); err != nil {
		fmt.Printf("Failed to start video: %v\n", err)
		os.Exit(1)
	}
	defer video.Close()

	if jp, ok := video.(JoypadInput); ok {
		jp.SetJoypadHandler(hw.SetButton)
	}

	// As with video, the audio backend (audio_backend_oto.go vs
	// audio_backend_headless.go) is chosen by the "headless" build tag; -audio
	// documents intent rather than branching at runtime.
	if *audioBackend != "oto" && *audioBackend != "headless" {
		fmt.Printf("Unknown audio backend: %s\n", *audioBackend)
		os.Exit(1)
	}
	audio, err := NewOtoPlayer(apuSampleRate)
	if err != nil {
		fmt.Printf("Failed to initialize audio: %v\n", err)
		os.Exit(1)
	}
	audio.SetupPlayer(hw)
	audio.Start()
	defer audio.Close()

	mon := NewMachineMonitor(driver, hw)
	if *monitorEnabled {
		mon.CPU().Freeze()
	} else {
		mon.CPU().Resume()
	}

	console := NewMonitorConsole()
	console.Start()
	defer console.Stop()

	var printed int
	flushMonitorOutput(mon, &printed)

	frameInterval := time.Second / time.Duration(video.GetRefreshRate())
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case line := <-console.Lines():
			mon.ExecuteCommand(line)
			flushMonitorOutput(mon, &printed)
			if mon.Quit() {
				return
			}

		case <-ticker.C:
			if !mon.CPU().IsRunning() {
				continue
			}

			for cycles := uint32(0); cycles < cyclesPerFrame; {
				if err := driver.Step(); err != nil {
					fmt.Printf("halted: %v\n", err)
					mon.CPU().Freeze()
					break
				}
				cycles += driver.LastCycles()

				if mon.CPU().checkBreakpoint() {
					mon.CPU().Freeze()
					fmt.Printf("breakpoint hit at $%04X\n", mon.CPU().GetPC())
					break
				}
				if driver.Halted {
					mon.CPU().Freeze()
					break
				}
			}

			if err := video.UpdateFrame(hw.Framebuffer()); err != nil {
				fmt.Printf("video update failed: %v\n", err)
			}
			_ = video.WaitForVSync()
		}
	}
}
