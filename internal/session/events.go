package session

import "sync"

// eventService управляет подписчиками на изменения состояния
type eventService struct {
	subscribers map[chan State]bool
	mu          sync.RWMutex
}

func newEventService() *eventService {
	return &eventService{
		subscribers: make(map[chan State]bool),
	}
}

// Subscribe добавляет нового подписчика и возвращает канал для получения снимков
func (s *eventService) Subscribe() chan State {
	ch := make(chan State, 10)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[ch] = true
	return ch
}

// Unsubscribe удаляет подписчика и закрывает его канал
func (s *eventService) Unsubscribe(ch chan State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		close(ch)
		delete(s.subscribers, ch)
	}
}

// Publish отправляет снимок всем подписчикам.
// Если канал подписчика переполнен, снимок пропускается.
func (s *eventService) Publish(st State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- st:
		default:
		}
	}
}

// closeAll закрывает все каналы подписчиков
func (s *eventService) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
}
