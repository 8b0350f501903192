package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ivlev/creditroll/internal/config"
	"github.com/ivlev/creditroll/internal/editor"
	"github.com/ivlev/creditroll/internal/export"
	"github.com/ivlev/creditroll/internal/model"
	"github.com/ivlev/creditroll/internal/overlay"
	"github.com/ivlev/creditroll/internal/project"
	"github.com/ivlev/creditroll/internal/renderapi"
	"github.com/ivlev/creditroll/internal/system"
)

var buildVersion = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	// Создаем нужные директории, если их нет
	for _, d := range []string{project.DefaultDir, "output"} {
		os.MkdirAll(d, 0755)
	}

	configPtr := flag.String("config", "", "Путь к yaml-конфигу редактора (опционально)")
	serverPtr := flag.String("server", "", "Адрес рендер-сервиса (по умолчанию из конфига)")
	projectPtr := flag.String("project", "", "Путь к проекту (по умолчанию: самый свежий в projects/)")
	newPtr := flag.String("new", "", "Создать новый проект с указанным именем и выйти")
	addPtr := flag.String("add-subtitle", "", "Добавить строку титров в проект (текст; \\n — перенос строки)")
	xPtr := flag.Int("x", 100, "X для -add-subtitle")
	yPtr := flag.Int("y", 100, "Y для -add-subtitle")
	playPtr := flag.Float64("play", 0, "Проиграть прокрутку N секунд и показать измеренный FPS")
	scrubPtr := flag.Float64("scrub", -1, "Перемотать на указанное смещение (px) перед -play/отчетом")
	exportPtr := flag.String("export", "", "Экспорт: dpx, tiff, seq, seq-fps")
	fpsPtr := flag.Float64("fps", 24, "FPS для seq-fps экспорта и плеера")
	durationPtr := flag.Float64("duration", 0, "Длительность прокрутки (сек) для seq-fps")
	speedPtr := flag.Float64("speed", 0, "Скорость прокрутки (px/с) для seq-fps")
	outPtr := flag.String("out", "", "Путь результата экспорта (если пусто, генерируется в output/)")
	snapshotPtr := flag.String("snapshot", "", "Сохранить PNG превью с маркерами в указанный файл")
	statsPtr := flag.Bool("stats", false, "Показать отчет производительности")

	flag.Parse()

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения конфига: %v", err)
		}
		cfg = loaded
	}
	cfg.BuildVersion = buildVersion
	if *serverPtr != "" {
		cfg.ServerURL = *serverPtr
	}

	if *newPtr != "" {
		p := project.New(*newPtr)
		path := project.GeneratePath(*newPtr)
		if err := project.Write(p, path); err != nil {
			log.Fatalf("[-] Ошибка записи проекта: %v", err)
		}
		fmt.Printf("[+++] Успех! Проект создан: %s\n", path)
		return
	}

	projectPath := *projectPtr
	if projectPath == "" {
		latest, err := project.FindLatest()
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Создайте проект через -new", err)
		}
		projectPath = latest
		fmt.Printf("[*] Выбран проект: %s\n", projectPath)
	}

	proj, err := project.Read(projectPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения проекта: %v", err)
	}

	ctx := context.Background()
	client := renderapi.NewClient(cfg.ServerURL)
	if err := client.Health(ctx); err != nil {
		log.Fatalf("[-] Рендер-сервис недоступен (%s): %v", cfg.ServerURL, err)
	}

	fmt.Println("--- [CREDITROLL EDITOR] ---")
	fmt.Printf("[*] Сервис: %s | Проект: %s\n", cfg.ServerURL, proj.Name)
	fmt.Printf("[*] Холст: %dx%d | Титров: %d\n", proj.Config.Width, proj.Config.Height, len(proj.Config.Subtitles))
	fmt.Println("---------------------------")

	if *addPtr != "" {
		text := strings.ReplaceAll(*addPtr, "\\n", "\n")
		st := model.NewStore(proj.Config)
		id := st.AddSubtitle(text, *xPtr, *yPtr)
		proj.Config = st.Snapshot().Config
		if err := project.Write(proj, projectPath); err != nil {
			log.Fatalf("[-] Ошибка сохранения проекта: %v", err)
		}
		fmt.Printf("[+++] Титр добавлен: %s\n", id)
		return
	}

	if *exportPtr != "" {
		runExport(ctx, client, cfg, proj, *exportPtr, *fpsPtr, *durationPtr, *speedPtr, *outPtr)
		return
	}

	session, err := editor.NewSession(ctx, cfg, proj)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации сессии: %v", err)
	}
	defer session.Close()

	// Ждем первое превью: дальше картинка только обновляется, не пропадает.
	if err := waitPreview(session, 30*time.Second); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	if r, ok := session.Preview.Resolve(); ok {
		fmt.Printf("[*] Превью готово: %s, %.1fms, высота ленты %dpx\n", r.Source, r.RenderTimeMs, r.TotalHeight)
	}

	if *snapshotPtr != "" {
		if err := writeSnapshot(session, *snapshotPtr); err != nil {
			log.Fatalf("[-] Ошибка снапшота: %v", err)
		}
		fmt.Printf("[+++] Успех! Снапшот сохранен: %s\n", *snapshotPtr)
	}

	if *scrubPtr >= 0 {
		session.Scrub(*scrubPtr)
		fmt.Printf("[*] Перемотка: кадр %d, смещение %.1fpx\n",
			session.Scheduler.FrameIndex(), session.Scheduler.ScrollOffset())
	}

	if *playPtr > 0 {
		if err := session.Scheduler.SetFrameRate(*fpsPtr); err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		fmt.Printf("[*] Проигрывание %.1fс @ %.3f FPS...\n", *playPtr, *fpsPtr)
		if err := session.Play(ctx); err != nil {
			log.Fatalf("[-] Ошибка плеера: %v", err)
		}
		deadline := time.After(time.Duration(*playPtr * float64(time.Second)))
	loop:
		for {
			select {
			case p := <-session.Positions():
				fmt.Printf("\r[>] Кадр %d | %.1fpx", p.FrameIndex, p.OffsetPx)
			case <-deadline:
				break loop
			}
		}
		fmt.Println()
		session.Pause()
	}

	if *statsPtr || *playPtr > 0 {
		fmt.Print(session.PerformanceReport())
	}
}

func waitPreview(s *editor.Session, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, ok := s.Preview.Resolve(); ok {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("превью не получено за %s", timeout)
}

// writeSnapshot декодирует актуальное превью и накладывает маркеры позиций.
func writeSnapshot(s *editor.Session, path string) error {
	r, ok := s.Preview.Resolve()
	if !ok {
		return fmt.Errorf("превью еще не получено")
	}
	img, err := renderapi.DecodeDataURL(r.ImageRef)
	if err != nil {
		return err
	}

	snap := s.Store.Snapshot()
	scale := float64(img.Bounds().Dx()) / float64(snap.Config.Width)
	markers := overlay.Markers(snap.Config, scale)
	composed := overlay.Composite(img, nil, markers, overlay.DefaultBoxColor)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, composed)
}

func runExport(ctx context.Context, client *renderapi.Client, cfg *config.Config, proj *project.Project, kind string, fps, duration, speed float64, out string) {
	start := time.Now()

	switch kind {
	case "dpx", "tiff":
		if out == "" {
			out = export.DefaultOutputPath(cfg.OutputDir, proj.Name, "."+kind)
		}
		var renderMs float64
		var err error
		if kind == "dpx" {
			renderMs, err = export.DPX(ctx, client, proj.Config, out)
		} else {
			renderMs, err = export.TIFF(ctx, client, proj.Config, out)
		}
		if err != nil {
			log.Fatalf("[-] Ошибка экспорта: %v", err)
		}
		fmt.Printf("[+++] Успех! %s сохранен: %s (рендер %.1fms)\n", strings.ToUpper(kind), out, renderMs)

	case "seq":
		if out == "" {
			out = export.DefaultOutputPath(cfg.OutputDir, proj.Name+"_seq", "")
		}
		rep, err := export.SequenceByHeight(ctx, client, proj.Config, out)
		if err != nil {
			log.Fatalf("[-] Ошибка экспорта: %v", err)
		}
		fmt.Printf("[+++] Успех! %d кадров в %s (рендер %.1fms)\n", rep.Frames, rep.OutDir, rep.RenderTimeMs)

	case "seq-fps":
		// Либо -duration, либо -speed; значения по умолчанию из проекта.
		if duration <= 0 && speed <= 0 {
			if proj.Playback.Mode == "duration" {
				duration = proj.Playback.DurationSec
			} else {
				speed = proj.Playback.SpeedPxPerSec
			}
		}
		if out == "" {
			out = export.DefaultOutputPath(cfg.OutputDir, proj.Name+"_seq", "")
		}
		spec := export.SequenceSpec{FPS: fps, DurationSec: duration, SpeedPxPerSec: speed}
		rep, err := export.Sequence(ctx, client, proj.Config, spec, out)
		if err != nil {
			log.Fatalf("[-] Ошибка экспорта: %v", err)
		}
		if rep.Frames != rep.ExpectedFrames {
			fmt.Printf("[!] В архиве %d кадров, ожидалось %d\n", rep.Frames, rep.ExpectedFrames)
		}
		fmt.Printf("[+++] Успех! %d кадров в %s (рендер %.1fms, высота %dpx)\n",
			rep.Frames, rep.OutDir, rep.RenderTimeMs, rep.TotalHeight)

	default:
		log.Fatalf("[-] Неизвестный формат экспорта: %s (dpx, tiff, seq, seq-fps)", kind)
	}

	fmt.Printf("[*] Общее время: %.2fс\n", time.Since(start).Seconds())
}
