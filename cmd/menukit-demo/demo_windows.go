//go:build windows

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"menukit"
	"menukit/internal/config"
	"menukit/internal/logging"
	"menukit/pkg/menudef"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")

	procRegisterClassExW = user32.NewProc("RegisterClassExW")
	procCreateWindowExW  = user32.NewProc("CreateWindowExW")
	procDefWindowProcW   = user32.NewProc("DefWindowProcW")
	procShowWindow       = user32.NewProc("ShowWindow")
	procGetMessageW      = user32.NewProc("GetMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessageW = user32.NewProc("DispatchMessageW")
	procPostQuitMessage  = user32.NewProc("PostQuitMessage")
	procDestroyWindow    = user32.NewProc("DestroyWindow")
)

const (
	wmDestroy = 0x0002
	wmClose   = 0x0010

	wsOverlappedWindow = 0x00CF0000
	swShowNormal       = 1
	cwUseDefault       = 0x80000000
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   syscall.Handle
	Icon       syscall.Handle
	Cursor     syscall.Handle
	Background syscall.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     syscall.Handle
}

type msg struct {
	Wnd     syscall.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// defaultMenu is used when no definition file is given.
const defaultMenu = `{
  "label": "demo",
  "items": [
    {"id": "hello", "label": "Say Hello"},
    {"id": "toggle", "label": "Dark Mode"},
    {"separator": true},
    {"id": "quit", "label": "Quit"}
  ]
}`

var (
	menuPath   = flag.String("menu", "", "path to a JSON or YAML menu definition")
	configPath = flag.String("config", "", "path to config file")
)

func runDemo() {
	// The window and its message loop must stay on the thread that created
	// the window.
	runtime.LockOSThread()

	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}
	loader := config.NewLoader(cfgPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	defer loader.Close()

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	log, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		Component: "menukit-demo",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	hwnd, err := createDemoWindow()
	if err != nil {
		log.Error("create window failed", "error", err)
		os.Exit(1)
	}

	cm, err := menukit.New(menukit.WithLogger(log.Logger), menukit.WithConfig(cfg))
	if err != nil {
		log.Error("menukit init failed", "error", err)
		os.Exit(1)
	}
	defer cm.Close()

	var menu menukit.MenuHandle
	if *menuPath != "" {
		menu, err = cm.BuildMenuFromFile(*menuPath)
	} else {
		var def *menudef.Definition
		def, err = menudef.Parse([]byte(defaultMenu))
		if err == nil {
			menu, err = cm.BuildMenu(def)
		}
	}
	if err != nil {
		log.Error("menu build failed", "error", err)
		os.Exit(1)
	}

	dark := false
	err = cm.Attach(menukit.WindowHandle(hwnd), menu, func(w menukit.WindowHandle, cmd menukit.CommandID) {
		id, _ := cm.ItemID(menu, cmd)
		log.Info("item selected", "id", id, "cmd", uint32(cmd))
		switch id {
		case "toggle":
			dark = !dark
			mode := menukit.ThemeLight
			if dark {
				mode = menukit.ThemeDark
			}
			if err := cm.SetWindowTheme(w, mode); err != nil {
				log.Warn("theme switch failed", "error", err)
			}
		case "quit":
			procDestroyWindow.Call(uintptr(hwnd))
		}
	})
	if err != nil {
		log.Error("attach failed", "error", err)
		os.Exit(1)
	}

	// Config edits take effect for theme default on the fly.
	loader.OnChange(func(newCfg *config.Config) {
		log.Info("config reloaded", "theme", newCfg.Theme.Default, "log_level", newCfg.Logging.Level)
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config watch unavailable", "error", err)
	}

	log.Info("demo running, right-click the window", "hwnd", uintptr(hwnd))
	messageLoop()
}

func createDemoWindow() (syscall.Handle, error) {
	className, _ := syscall.UTF16PtrFromString("MenukitDemoClass")
	wcex := wndClassEx{
		Size:      uint32(unsafe.Sizeof(wndClassEx{})),
		WndProc:   syscall.NewCallback(demoWndProc),
		ClassName: className,
	}
	if ret, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wcex))); ret == 0 {
		return 0, fmt.Errorf("RegisterClassEx: %v", err)
	}

	windowName, _ := syscall.UTF16PtrFromString("menukit demo")
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		wsOverlappedWindow,
		cwUseDefault, cwUseDefault, 480, 320,
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx: %v", err)
	}

	procShowWindow.Call(hwnd, swShowNormal)
	return syscall.Handle(hwnd), nil
}

func demoWndProc(hwnd, message, wparam, lparam uintptr) uintptr {
	switch message {
	case wmClose:
		procDestroyWindow.Call(hwnd)
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, message, wparam, lparam)
	return ret
}

func messageLoop() {
	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}
