package biz

import "sync"

// conversationLocks 按对话 ID 互斥。消息位置按序分配、摘要窗口依赖
// 严格顺序，同一对话必须最多一轮在途；不同对话完全并行。
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{
		locks: make(map[string]*conversationLock),
	}
}

// Acquire 获取对话锁。返回的释放函数在每条退出路径上都必须调用，
// 包括出错和取消。
func (l *conversationLocks) Acquire(conversationID string) (release func()) {
	l.mu.Lock()
	lock, ok := l.locks[conversationID]
	if !ok {
		lock = &conversationLock{}
		l.locks[conversationID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()
			l.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(l.locks, conversationID)
			}
			l.mu.Unlock()
		})
	}
}
